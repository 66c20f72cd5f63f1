// Package tlsroots loads TLS material for api-server and api-shell.
//
//   - roots.go: CA pools (system roots plus extra PEM files or directories)
//     and client configs trusting them
//   - reloader.go: a server certificate that is reloaded when its files
//     change on disk (fsnotify)
package tlsroots
