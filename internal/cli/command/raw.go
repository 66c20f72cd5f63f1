package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/abiibaabi/grr/internal/cli/apiclient"
	"github.com/abiibaabi/grr/internal/cli/connection"
	"github.com/abiibaabi/grr/internal/cli/output"
	"github.com/abiibaabi/grr/internal/cli/repl"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/infra/buildinfo"
	"github.com/abiibaabi/grr/internal/server/app"
)

// RawShellApp creates api-shell-raw. It opens the server's storage directly
// and calls the router in-process as the declared user. No credential is
// checked, so it is meant for operators on the server host.
func RawShellApp() *cli.App {
	return &cli.App{
		Name:     "api-shell-raw",
		Usage:    "grr admin API shell with direct router access (no authentication)",
		Version:  buildinfo.String(),
		Flags:    rawShellFlags(),
		Metadata: map[string]any{},
		Action:   runRawShell,
	}
}

func rawShellFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "page-size",
			Usage:   "Items requested per page of a listing",
			EnvVars: []string{"GRR_PAGE_SIZE"},
			Value:   connection.DefaultPageSize,
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "User the calls are made as",
			EnvVars: []string{"USER"},
		},
		&cli.StringFlag{
			Name:    "exec-code",
			Aliases: []string{"c"},
			Usage:   "Run these statements and exit",
		},
		&cli.PathFlag{
			Name:    "exec-file",
			Aliases: []string{"f"},
			Usage:   "Run the statements in this file and exit",
		},
		&cli.PathFlag{
			Name:    "config",
			Usage:   "Server configuration file (YAML)",
			EnvVars: []string{"GRR_CONFIG"},
		},
		&cli.PathFlag{
			Name:  "data-dir",
			Usage: "Storage directory, overrides the configuration",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show all columns",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level for diagnostics on stderr",
			Value: "warn",
		},
		&cli.IntFlag{
			Name:  "max-pages",
			Usage: "Stop a listing after this many pages (0 = no limit)",
		},
	}
}

// rawOverrides maps the flags that were given onto configuration keys.
func rawOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if c.IsSet("page-size") {
		overrides["shell.page_size"] = c.Int("page-size")
	}
	if c.IsSet("max-pages") {
		overrides["shell.max_pages"] = c.Int("max-pages")
	}
	if c.IsSet("output") {
		overrides["shell.output"] = c.String("output")
	}
	if c.IsSet("data-dir") {
		overrides["storage.data_dir"] = c.Path("data-dir")
		overrides["storage.in_memory"] = false
	}
	return overrides
}

func runRawShell(c *cli.Context) error {
	// Argument problems are reported before anything is opened.
	username := strings.TrimSpace(c.String("username"))
	if username == "" {
		return cli.Exit("cannot determine the acting user: pass --username or set $USER", 1)
	}
	principal, err := domain.NewRawPrincipal(username)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.IsSet("exec-code") && c.IsSet("exec-file") {
		return cli.Exit("--exec-code and --exec-file are mutually exclusive", 1)
	}

	log, err := newLogger(c.String("log-level"), c.App.ErrWriter)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	cfg, err := app.LoadConfig(c.Path("config"), rawOverrides(c))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	format, err := output.ParseFormat(cfg.Shell.Output)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	a, err := app.Build(cfg, log, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer a.Close()

	conn, err := connection.NewRawConnector(a.Router, principal, connection.Config{
		PageSize: cfg.Shell.PageSize,
		MaxPages: cfg.Shell.MaxPages,
	}, connection.WithLogger(log))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	env := &Env{
		Client:    apiclient.New(conn),
		Formatter: output.NewFormatter(format, c.Bool("wide")),
		Stdout:    c.App.Writer,
		Stderr:    c.App.ErrWriter,
	}
	runner := NewRunner(env)
	warn := color.New(color.FgYellow)

	var script string
	switch {
	case c.IsSet("exec-code"):
		script = c.String("exec-code")
	case c.IsSet("exec-file"):
		b, err := os.ReadFile(c.Path("exec-file"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("read script: %v", err), 1)
		}
		script = string(b)
	default:
		return repl.New(runner,
			repl.WithIO(c.App.Reader, c.App.Writer, c.App.ErrWriter),
			repl.WithPrompt(principal.Username()+"@raw> "),
			repl.WithBanner(rawBanner(principal)),
			repl.WithHistoryFile(repl.DefaultHistoryFile("raw_shell_history")),
			repl.WithCompleter(repl.NewCompleter(CommandPhrases())),
		).Run(c.Context)
	}

	warn.Fprintf(env.Stderr, "raw access as %s, authentication bypassed\n", principal.ActorID())
	if err := RunScript(c.Context, runner, script); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func rawBanner(p domain.RawPrincipal) string {
	return fmt.Sprintf("grr raw API shell %s\n"+
		"Acting as %s. Calls go straight to the router and bypass authentication.\n"+
		"Type 'help' for commands, 'exit' to leave.",
		buildinfo.Version, p.Username())
}
