// Package app assembles storage, services and the API router from a
// config.Config. api-server and api-shell-raw build the same stack through
// it, so both reach identical method implementations.
package app
