// Command api-shell-raw is the admin API shell for operators on the server
// host. It opens the server's storage and calls the API router in-process as
// the user named by --username or $USER, without any credential check.
//
// Usage:
//
//	api-shell-raw                                  # interactive console
//	api-shell-raw --exec-code 'session list --user-id u1'
//	api-shell-raw --exec-file cleanup.grr --output json
//
// Stop api-server first: both processes cannot hold the storage directory.
package main

import (
	"fmt"
	"os"

	"github.com/abiibaabi/grr/internal/cli/command"
)

func main() {
	if err := command.RawShellApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
