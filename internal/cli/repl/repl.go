package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Executor runs one console line.
type Executor interface {
	Exec(ctx context.Context, line string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, line string) error

func (f ExecutorFunc) Exec(ctx context.Context, line string) error {
	return f(ctx, line)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec        Executor
	input       io.Reader
	output      io.Writer
	errOutput   io.Writer
	prompt      string
	banner      string
	historyFile string
	completer   *Completer
	errColor    *color.Color
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
		r.errOutput = errOut
	}
}

func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithBanner prints banner once before the first prompt.
func WithBanner(banner string) Option {
	return func(r *REPL) {
		r.banner = banner
	}
}

// WithHistoryFile sets where readline keeps history. Empty disables it.
func WithHistoryFile(path string) Option {
	return func(r *REPL) {
		r.historyFile = path
	}
}

func WithCompleter(c *Completer) Option {
	return func(r *REPL) {
		r.completer = c
	}
}

// New creates a REPL that hands every line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		input:     os.Stdin,
		output:    os.Stdout,
		errOutput: os.Stderr,
		prompt:    "grr> ",
		completer: NewCompleter(nil),
		errColor:  color.New(color.FgRed),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultHistoryFile returns ~/.grr/<name>, or "" if there is no home dir.
func DefaultHistoryFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".grr", name)
}

// Run reads lines until exit, quit, EOF or ctx is done. Errors from a line
// are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	if r.banner != "" {
		fmt.Fprintln(r.output, r.banner)
	}

	read, closeFn := r.lineReader()
	defer closeFn()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := read()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.exec.Exec(ctx, line); err != nil {
			r.errColor.Fprintf(r.errOutput, "Error: %v\n", err)
		}
	}
}

// lineReader picks readline on a terminal and a buffered reader otherwise.
func (r *REPL) lineReader() (func() (string, error), func()) {
	if rl, err := r.newReadline(); err == nil {
		return func() (string, error) {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return "", io.EOF
				}
				return "", nil
			}
			return line, err
		}, func() { rl.Close() }
	}

	reader := bufio.NewReader(r.input)
	return func() (string, error) {
		fmt.Fprint(r.output, r.prompt)
		line, err := reader.ReadString('\n')
		if err != nil && len(line) > 0 {
			return line, nil
		}
		return line, err
	}, func() {}
}

func (r *REPL) newReadline() (*readline.Instance, error) {
	inFile, ok := r.input.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}
	outFile, ok := r.output.(*os.File)
	if !ok || !term.IsTerminal(int(outFile.Fd())) {
		return nil, fmt.Errorf("stdout is not a terminal")
	}
	if r.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err != nil {
			r.historyFile = ""
		}
	}

	return readline.NewEx(&readline.Config{
		Prompt:          r.prompt,
		HistoryFile:     r.historyFile,
		HistoryLimit:    1000,
		AutoComplete:    r.completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           inFile,
		Stdout:          r.output,
		Stderr:          r.errOutput,
	})
}
