package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
)

// APIKeyCommand returns the apikey subcommand group.
func APIKeyCommand() *cli.Command {
	return &cli.Command{
		Name:    "apikey",
		Aliases: []string{"key"},
		Usage:   "Manage API keys",
		Action:  unknownCommand,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List API keys",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "role",
						Aliases: []string{"r"},
						Usage:   "Filter by role",
					},
				},
				Action: withEnv(apikeyList),
			},
			{
				Name:  "create",
				Usage: "Create an API key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Key name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Key role (" + roleList() + ")",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Key description",
					},
					&cli.IntFlag{
						Name:  "rate-limit",
						Usage: "Requests per second (server default when unset)",
					},
				},
				Action: withEnv(apikeyCreate),
			},
			{
				Name:      "enable",
				Usage:     "Enable an API key",
				ArgsUsage: "KEY_ID",
				Action:    withEnv(apikeySetStatus(true)),
			},
			{
				Name:      "disable",
				Usage:     "Disable an API key",
				ArgsUsage: "KEY_ID",
				Action:    withEnv(apikeySetStatus(false)),
			},
			{
				Name:      "rotate",
				Usage:     "Issue a new secret for an API key",
				ArgsUsage: "KEY_ID",
				Action:    withEnv(apikeyRotate),
			},
		},
	}
}

func roleList() string {
	roles := domain.ValidRoles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func apikeyList(c *cli.Context, env *Env) error {
	keys, err := env.Client.ListAPIKeys(c.Context, c.String("role"))
	if err != nil {
		return err
	}
	return env.print(keys)
}

func apikeyCreate(c *cli.Context, env *Env) error {
	res, err := env.Client.CreateAPIKey(c.Context, apiv1.CreateAPIKeyArgs{
		Name:        c.String("name"),
		Role:        c.String("role"),
		Description: c.String("description"),
		RateLimit:   c.Int("rate-limit"),
	})
	if err != nil {
		return err
	}
	if err := env.print(res); err != nil {
		return err
	}
	env.note("Save this secret now. It cannot be retrieved later.")
	return nil
}

func apikeySetStatus(enabled bool) func(*cli.Context, *Env) error {
	return func(c *cli.Context, env *Env) error {
		id, err := singleArg(c, "KEY_ID")
		if err != nil {
			return err
		}
		key, err := env.Client.SetAPIKeyStatus(c.Context, id, enabled)
		if err != nil {
			return err
		}
		return env.print(key)
	}
}

func apikeyRotate(c *cli.Context, env *Env) error {
	id, err := singleArg(c, "KEY_ID")
	if err != nil {
		return err
	}
	res, err := env.Client.RotateAPIKey(c.Context, id)
	if err != nil {
		return err
	}
	if err := env.print(res); err != nil {
		return err
	}
	env.note("The previous secret no longer works. Save the new one now.")
	return nil
}
