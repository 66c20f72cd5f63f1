package command

import (
	"context"
	"fmt"
	"unicode"

	"github.com/abiibaabi/grr/internal/cli/repl"
)

// Statement is one command of a script and the line it starts on.
type Statement struct {
	Line int
	Text string
}

// SplitScript cuts src into statements. Statements end at a newline or an
// unquoted ';'. An unquoted '#' at the start of a word comments out the rest
// of the line, and a backslash before a newline continues the statement.
// Quotes are kept for the line parser.
func SplitScript(src string) []Statement {
	var (
		out     []Statement
		cur     []rune
		line    = 1
		start   = 1
		quote   rune
		escaped bool
		comment bool
	)
	flush := func() {
		if text := trimRunes(cur); text != "" {
			out = append(out, Statement{Line: start, Text: text})
		}
		cur = cur[:0]
		start = line
	}

	for _, r := range src {
		switch {
		case comment:
			if r == '\n' {
				comment = false
				line++
				flush()
			}
			continue
		case escaped:
			escaped = false
			if r == '\n' {
				cur = cur[:len(cur)-1]
				cur = append(cur, ' ')
				line++
				continue
			}
			cur = append(cur, r)
			continue
		case quote != 0:
			cur = append(cur, r)
			switch {
			case r == '\\' && quote == '"':
				escaped = true
			case r == quote:
				quote = 0
			case r == '\n':
				line++
			}
			continue
		}

		switch r {
		case '\\':
			escaped = true
			cur = append(cur, r)
		case '\'', '"':
			quote = r
			cur = append(cur, r)
		case '#':
			if len(cur) == 0 || unicode.IsSpace(cur[len(cur)-1]) {
				comment = true
			} else {
				cur = append(cur, r)
			}
		case ';':
			flush()
		case '\n':
			line++
			flush()
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}

func trimRunes(rs []rune) string {
	i, j := 0, len(rs)
	for i < j && unicode.IsSpace(rs[i]) {
		i++
	}
	for j > i && unicode.IsSpace(rs[j-1]) {
		j--
	}
	return string(rs[i:j])
}

// RunScript executes the statements of src in order and stops at the first
// failure. "exit" and "quit" end the script early.
func RunScript(ctx context.Context, exec repl.Executor, src string) error {
	for _, st := range SplitScript(src) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.Text == "exit" || st.Text == "quit" {
			return nil
		}
		if err := exec.Exec(ctx, st.Text); err != nil {
			return fmt.Errorf("line %d: %s: %w", st.Line, st.Text, err)
		}
	}
	return nil
}
