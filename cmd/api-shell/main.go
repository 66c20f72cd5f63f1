// Command api-shell runs admin API commands against a remote api-server
// using an API key.
//
// Usage:
//
//	api-shell --server 127.0.0.1:5080 -k KEY_ID -K SECRET session list
//	api-shell -k KEY_ID -K SECRET shell
package main

import (
	"fmt"
	"os"

	"github.com/abiibaabi/grr/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
