// Package storage persists sessions and API keys in Badger.
//
// A single DB is shared by SessionStore and APIKeyStore. Records are JSON
// encoded under per-type key prefixes; primary keys embed ULIDs, so prefix
// iteration yields creation order and list windows stay stable.
package storage
