package command

import (
	"context"
	"fmt"

	"github.com/google/shlex"
	"github.com/urfave/cli/v2"

	"github.com/abiibaabi/grr/internal/cli/repl"
)

// Runner executes single shell lines against an Env. It implements
// repl.Executor, so the console and scripts share it.
type Runner struct {
	env *Env
}

var _ repl.Executor = (*Runner)(nil)

func NewRunner(env *Env) *Runner {
	return &Runner{env: env}
}

// Exec splits line into words and runs it as one command of the tree.
// Command errors are returned, never turned into a process exit.
func (r *Runner) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	app := r.newApp()
	return app.RunContext(ctx, append([]string{app.Name}, args...))
}

// newApp builds a fresh app per line; cli.App keeps parsed flag state.
func (r *Runner) newApp() *cli.App {
	return &cli.App{
		Name:           "grr",
		Usage:          "grr admin API",
		HideVersion:    true,
		Commands:       Commands(),
		Action:         unknownCommand,
		Writer:         r.env.Stdout,
		ErrWriter:      r.env.Stderr,
		Metadata:       map[string]any{envKey: r.env},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}
