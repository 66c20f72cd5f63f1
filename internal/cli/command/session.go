package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	apiv1 "github.com/abiibaabi/grr/api/v1"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage sessions",
		Action:  unknownCommand,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List sessions, following every page",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user-id",
						Aliases: []string{"u"},
						Usage:   "Filter by user ID",
					},
					&cli.StringFlag{
						Name:  "device-id",
						Usage: "Filter by device ID",
					},
					&cli.StringFlag{
						Name:  "created-by",
						Usage: "Filter by creating actor",
					},
					&cli.BoolFlag{
						Name:  "include-expired",
						Usage: "Include expired sessions",
					},
				},
				Action: withEnv(sessionList),
			},
			{
				Name:      "get",
				Usage:     "Show one session",
				ArgsUsage: "SESSION_ID",
				Action:    withEnv(sessionGet),
			},
			{
				Name:  "create",
				Usage: "Create a session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user-id",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.DurationFlag{
						Name:    "ttl",
						Aliases: []string{"t"},
						Usage:   "Session TTL, e.g. 12h (server default when unset)",
					},
					&cli.StringFlag{
						Name:  "device-id",
						Usage: "Device ID",
					},
					&cli.StringFlag{
						Name:  "ip",
						Usage: "Client IP address",
					},
					&cli.StringFlag{
						Name:  "user-agent",
						Usage: "Client user agent",
					},
					&cli.StringSliceFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Session data as KEY=VALUE (repeatable)",
					},
				},
				Action: withEnv(sessionCreate),
			},
			{
				Name:      "renew",
				Aliases:   []string{"extend"},
				Usage:     "Extend a session",
				ArgsUsage: "[--ttl DURATION] SESSION_ID",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "ttl",
						Aliases: []string{"t"},
						Usage:   "New TTL from now (server default when unset)",
					},
				},
				Action: withEnv(sessionRenew),
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a session",
				ArgsUsage: "SESSION_ID",
				Action:    withEnv(sessionRevoke),
			},
			{
				Name:      "revoke-all",
				Usage:     "Revoke every session of a user",
				ArgsUsage: "USER_ID",
				Action:    withEnv(sessionRevokeAll),
			},
		},
	}
}

func sessionList(c *cli.Context, env *Env) error {
	sessions, err := env.Client.ListSessions(c.Context, apiv1.ListSessionsArgs{
		UserID:         c.String("user-id"),
		DeviceID:       c.String("device-id"),
		CreatedBy:      c.String("created-by"),
		IncludeExpired: c.Bool("include-expired"),
	})
	if err != nil {
		return err
	}
	return env.print(sessions)
}

func sessionGet(c *cli.Context, env *Env) error {
	id, err := singleArg(c, "SESSION_ID")
	if err != nil {
		return err
	}
	sess, err := env.Client.GetSession(c.Context, id)
	if err != nil {
		return err
	}
	return env.print(sess)
}

func sessionCreate(c *cli.Context, env *Env) error {
	data, err := parsePairs(c.StringSlice("data"))
	if err != nil {
		return err
	}

	res, err := env.Client.CreateSession(c.Context, apiv1.CreateSessionArgs{
		UserID:     c.String("user-id"),
		DeviceID:   c.String("device-id"),
		IPAddress:  c.String("ip"),
		UserAgent:  c.String("user-agent"),
		TTLSeconds: seconds(c.Duration("ttl")),
		Data:       data,
	})
	if err != nil {
		return err
	}
	if err := env.print(res); err != nil {
		return err
	}
	env.note("Save this token now. It cannot be retrieved later.")
	return nil
}

func sessionRenew(c *cli.Context, env *Env) error {
	id, err := singleArg(c, "SESSION_ID")
	if err != nil {
		return err
	}
	sess, err := env.Client.RenewSession(c.Context, id, seconds(c.Duration("ttl")))
	if err != nil {
		return err
	}
	return env.print(sess)
}

func sessionRevoke(c *cli.Context, env *Env) error {
	id, err := singleArg(c, "SESSION_ID")
	if err != nil {
		return err
	}
	res, err := env.Client.RevokeSession(c.Context, id)
	if err != nil {
		return err
	}
	return env.print(res)
}

func sessionRevokeAll(c *cli.Context, env *Env) error {
	userID, err := singleArg(c, "USER_ID")
	if err != nil {
		return err
	}
	res, err := env.Client.RevokeUserSessions(c.Context, userID)
	if err != nil {
		return err
	}
	return env.print(res)
}

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Inspect session tokens",
		Action: unknownCommand,
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check a token and show its session",
				ArgsUsage: "[--touch] [--client-ip IP] TOKEN",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "touch",
						Usage: "Update the session's last access time",
					},
					&cli.StringFlag{
						Name:  "client-ip",
						Usage: "Client IP recorded on touch",
					},
				},
				Action: withEnv(tokenValidate),
			},
		},
	}
}

func tokenValidate(c *cli.Context, env *Env) error {
	token, err := singleArg(c, "TOKEN")
	if err != nil {
		return err
	}
	res, err := env.Client.ValidateToken(c.Context, apiv1.ValidateTokenArgs{
		Token:    token,
		Touch:    c.Bool("touch"),
		ClientIP: c.String("client-ip"),
	})
	if err != nil {
		return err
	}
	return env.print(res)
}

// parsePairs turns KEY=VALUE strings into a map. nil in, nil out.
func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid pair %q, want KEY=VALUE", p)
		}
		out[k] = v
	}
	return out, nil
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
