// Package command defines the shell command tree shared by api-shell and
// api-shell-raw.
//
// The same commands run against any connection.Connector:
//
//   - root.go: Env, the networked shell app and its global flags
//   - raw.go: the raw shell app (in-process router, declared principal)
//   - session.go, apikey.go, system.go: resource subcommands
//   - call.go: generic "call METHOD key=value" and "methods"
//   - runner.go: line execution for the console and scripts
//   - script.go: statement splitting for --exec-code and --exec-file
package command
