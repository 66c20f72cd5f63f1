package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/abiibaabi/grr/internal/cli/apiclient"
	"github.com/abiibaabi/grr/internal/cli/connection"
	"github.com/abiibaabi/grr/internal/cli/output"
	"github.com/abiibaabi/grr/internal/cli/repl"
	"github.com/abiibaabi/grr/internal/infra/buildinfo"
	"github.com/abiibaabi/grr/internal/infra/tlsroots"
	"github.com/abiibaabi/grr/internal/server/config"
	"github.com/abiibaabi/grr/internal/telemetry/logger"
)

const envKey = "env"

// Env is what every command action needs: a client bound to a connector and
// somewhere to print results.
type Env struct {
	Client    *apiclient.Client
	Formatter output.Formatter
	Stdout    io.Writer
	Stderr    io.Writer
}

func (e *Env) print(data any) error {
	return e.Formatter.Format(e.Stdout, output.Normalize(data))
}

func (e *Env) note(format string, args ...any) {
	fmt.Fprintf(e.Stderr, format+"\n", args...)
}

func envFrom(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok && env != nil {
		return env, nil
	}
	return nil, errors.New("not connected")
}

// withEnv adapts an action that needs an Env.
func withEnv(fn func(c *cli.Context, env *Env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := envFrom(c)
		if err != nil {
			return err
		}
		return fn(c, env)
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	v := c.Args().First()
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// singleArg is requireArg for commands that take exactly one argument.
// Flag parsing stops at the first argument, so anything after it would
// otherwise be ignored without notice.
func singleArg(c *cli.Context, name string) (string, error) {
	v, err := requireArg(c, name)
	if err != nil {
		return "", err
	}
	if c.Args().Len() > 1 {
		return "", fmt.Errorf("unexpected argument %q: flags go before %s", c.Args().Get(1), name)
	}
	return v, nil
}

// Commands returns the command tree shared by both shells.
func Commands() []*cli.Command {
	return []*cli.Command{
		SessionCommand(),
		APIKeyCommand(),
		TokenCommand(),
		SystemCommand(),
		CallCommand(),
		MethodsCommand(),
	}
}

// CommandPhrases lists every runnable command path, such as "session list".
func CommandPhrases() []string {
	var out []string
	var walk func(prefix string, cmds []*cli.Command)
	walk = func(prefix string, cmds []*cli.Command) {
		for _, cmd := range cmds {
			phrase := prefix + cmd.Name
			if len(cmd.Subcommands) == 0 {
				out = append(out, phrase)
				continue
			}
			walk(phrase+" ", cmd.Subcommands)
		}
	}
	walk("", Commands())
	return out
}

// unknownCommand is the action of the root and of command groups, so that a
// misspelled command is an error rather than a help screen.
func unknownCommand(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}
	return cli.ShowSubcommandHelp(c)
}

// App creates the networked shell: the command tree over an HTTPConnector.
func App() *cli.App {
	app := &cli.App{
		Name:     "api-shell",
		Usage:    "grr admin API shell",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: append(Commands(), ShellCommand()),
		Before:   connect,
		Action:   unknownCommand,
	}
	return app
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "api-server address",
			EnvVars: []string{"GRR_SERVER"},
			Value:   config.DefaultHTTPAddr,
		},
		&cli.StringFlag{
			Name:    "api-key-id",
			Aliases: []string{"k"},
			Usage:   "API key ID",
			EnvVars: []string{"GRR_API_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "API key secret",
			EnvVars: []string{"GRR_API_KEY"},
		},
		&cli.PathFlag{
			Name:    "ca-file",
			Usage:   "Extra CA certificate (PEM file or directory) trusted for https servers",
			EnvVars: []string{"GRR_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show all columns",
		},
		&cli.IntFlag{
			Name:    "page-size",
			Usage:   "Items requested per page of a listing",
			EnvVars: []string{"GRR_PAGE_SIZE"},
			Value:   connection.DefaultPageSize,
		},
		&cli.IntFlag{
			Name:  "max-pages",
			Usage: "Stop a listing after this many pages (0 = no limit)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level for diagnostics on stderr",
			Value: "warn",
		},
	}
}

// connect builds the Env for the networked shell from the global flags.
func connect(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	log, err := newLogger(c.String("log-level"), c.App.ErrWriter)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts := []connection.Option{connection.WithLogger(log)}
	if ca := c.Path("ca-file"); ca != "" {
		tlsCfg, err := tlsroots.ClientConfig(ca)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		opts = append(opts, connection.WithHTTPClient(&http.Client{
			Timeout:   30 * time.Second,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		}))
	}

	conn, err := connection.NewHTTPConnector(
		c.String("server"),
		c.String("api-key-id"),
		c.String("api-key"),
		connection.Config{PageSize: c.Int("page-size"), MaxPages: c.Int("max-pages")},
		opts...,
	)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	c.App.Metadata[envKey] = &Env{
		Client:    apiclient.New(conn),
		Formatter: output.NewFormatter(format, c.Bool("wide")),
		Stdout:    c.App.Writer,
		Stderr:    c.App.ErrWriter,
	}
	return nil
}

// ShellCommand starts the interactive console of the networked shell.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive console",
		Action: withEnv(func(c *cli.Context, env *Env) error {
			conn, _ := env.Client.Connector().(*connection.HTTPConnector)
			banner := "grr admin shell. Type 'help' for commands, 'exit' to leave."
			if conn != nil {
				if err := conn.Ping(c.Context); err != nil {
					return fmt.Errorf("server unreachable: %w", err)
				}
				banner = fmt.Sprintf("Connected to %s. Type 'help' for commands, 'exit' to leave.", conn.BaseURL())
			}

			return repl.New(NewRunner(env),
				repl.WithIO(c.App.Reader, c.App.Writer, c.App.ErrWriter),
				repl.WithBanner(banner),
				repl.WithHistoryFile(repl.DefaultHistoryFile("shell_history")),
				repl.WithCompleter(repl.NewCompleter(CommandPhrases())),
			).Run(c.Context)
		}),
	}
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	if level == "" {
		level = "warn"
	}
	if w == nil {
		w = os.Stderr
	}
	return logger.New(logger.Config{Level: level, Format: "text", Output: w})
}
