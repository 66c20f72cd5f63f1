// Package repl is the interactive console of the shells.
//
// On a terminal it uses readline for editing, history and tab completion.
// Otherwise it reads plain lines, which lets scripts be piped in.
package repl
