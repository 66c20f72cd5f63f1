package repl

import (
	"sort"
	"strings"
)

// Completer completes whole command phrases such as "session list".
// It implements readline.AutoCompleter.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over phrases. exit, quit and help are
// always included.
func NewCompleter(phrases []string) *Completer {
	seen := map[string]bool{}
	var commands []string
	for _, p := range append([]string{"help", "exit", "quit"}, phrases...) {
		if p = strings.TrimSpace(p); p != "" && !seen[p] {
			seen[p] = true
			commands = append(commands, p)
		}
	}
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Do returns the remaining text of every phrase that extends line[:pos].
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	var out [][]rune
	for _, s := range c.Complete(prefix) {
		if s == prefix {
			continue
		}
		out = append(out, []rune(s[len(prefix):]))
	}
	return out, len([]rune(prefix))
}
