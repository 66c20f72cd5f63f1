// Package domain defines the entities behind the admin API: sessions,
// API keys, session tokens, the principals that act on them, and the
// coded errors every layer above returns.
//
// Nothing in here performs IO. Storage, services and the router all
// depend on this package; it depends on none of them.
package domain
