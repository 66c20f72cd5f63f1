package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// CallCommand sends any API method with arguments given as KEY=VALUE.
// Values starting with { or [ are parsed as JSON; everything else is
// passed as a string and converted by the router.
func CallCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Call an API method directly",
		ArgsUsage: "METHOD [KEY=VALUE ...]",
		Action:    withEnv(callMethod),
	}
}

// MethodsCommand lists the methods "call" accepts.
func MethodsCommand() *cli.Command {
	return &cli.Command{
		Name:   "methods",
		Usage:  "List API methods",
		Action: withEnv(listMethods),
	}
}

func callMethod(c *cli.Context, env *Env) error {
	method, err := requireArg(c, "METHOD")
	if err != nil {
		return err
	}
	args, err := parseCallArgs(c.Args().Tail())
	if err != nil {
		return err
	}

	resp, err := env.Client.Raw(c.Context, method, args)
	if err != nil {
		return err
	}
	if !resp.IsList() {
		return env.print(resp.Value())
	}

	items, err := resp.All(c.Context)
	if err != nil {
		return err
	}
	return env.print(items)
}

func listMethods(c *cli.Context, env *Env) error {
	methods, err := env.Client.Methods(c.Context)
	if err != nil {
		return err
	}
	return env.print(methods)
}

func parseCallArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument %q, want KEY=VALUE", p)
		}
		if strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[") {
			var decoded any
			if err := json.Unmarshal([]byte(v), &decoded); err != nil {
				return nil, fmt.Errorf("argument %s: %w", k, err)
			}
			out[k] = decoded
			continue
		}
		out[k] = v
	}
	return out, nil
}
