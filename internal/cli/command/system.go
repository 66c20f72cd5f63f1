package command

import "github.com/urfave/cli/v2"

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:   "system",
		Usage:  "Server status and maintenance",
		Action: unknownCommand,
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show version, uptime and object counts",
				Action: withEnv(systemStatus),
			},
			{
				Name:   "gc",
				Usage:  "Remove expired sessions now",
				Action: withEnv(systemGC),
			},
		},
	}
}

func systemStatus(c *cli.Context, env *Env) error {
	status, err := env.Client.StatusSummary(c.Context)
	if err != nil {
		return err
	}
	return env.print(status)
}

func systemGC(c *cli.Context, env *Env) error {
	res, err := env.Client.GarbageCollect(c.Context)
	if err != nil {
		return err
	}
	return env.print(res)
}
