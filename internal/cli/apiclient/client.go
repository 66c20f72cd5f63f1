// Package apiclient is the resource-oriented API used by shell commands.
//
// Every method builds a connection.Call and sends it through whatever
// Connector the client was given, so the same commands run in-process
// against the router or over HTTP against api-server.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/cli/connection"
)

// Client exposes the admin API as typed methods.
type Client struct {
	conn connection.Connector
}

// New wraps conn.
func New(conn connection.Connector) *Client {
	return &Client{conn: conn}
}

// Connector returns the underlying connector.
func (c *Client) Connector() connection.Connector {
	return c.conn
}

// Raw sends method with untyped args and returns the undecoded response.
func (c *Client) Raw(ctx context.Context, method string, args map[string]any) (*connection.Response, error) {
	return c.conn.SendCall(ctx, &connection.Call{Method: method, Args: args})
}

// Methods lists the operations the server knows.
func (c *Client) Methods(ctx context.Context) ([]apiv1.MethodInfo, error) {
	return one[[]apiv1.MethodInfo](ctx, c, "ListMethods", nil)
}

// StatusSummary returns version, uptime and object counts.
func (c *Client) StatusSummary(ctx context.Context) (*apiv1.StatusSummary, error) {
	return ptr(one[apiv1.StatusSummary](ctx, c, "GetStatusSummary", nil))
}

// GarbageCollect removes expired sessions now.
func (c *Client) GarbageCollect(ctx context.Context) (*apiv1.GCResult, error) {
	return ptr(one[apiv1.GCResult](ctx, c, "CollectGarbage", nil))
}

func (c *Client) send(ctx context.Context, method string, args any) (*connection.Response, error) {
	m, err := argsMap(args)
	if err != nil {
		return nil, err
	}
	return c.Raw(ctx, method, m)
}

// argsMap flattens a tagged args struct into a call's argument map.
func argsMap(args any) (map[string]any, error) {
	if args == nil {
		return nil, nil
	}
	out := map[string]any{}
	if err := mapstructure.Decode(args, &out); err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return out, nil
}

func one[T any](ctx context.Context, c *Client, method string, args any) (T, error) {
	var zero T
	resp, err := c.send(ctx, method, args)
	if err != nil {
		return zero, err
	}
	return Decode[T](resp.Value())
}

func all[T any](ctx context.Context, c *Client, method string, args any) ([]T, error) {
	resp, err := c.send(ctx, method, args)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for item, err := range resp.Items(ctx) {
		if err != nil {
			return out, err
		}
		v, err := Decode[T](item)
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func ptr[T any](v T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Decode converts a result item to T. In-process results already have the
// right type; HTTP results arrive as json.RawMessage.
func Decode[T any](v any) (T, error) {
	var out T
	switch x := v.(type) {
	case T:
		return x, nil
	case *T:
		if x != nil {
			return *x, nil
		}
		return out, nil
	case json.RawMessage:
		if err := json.Unmarshal(x, &out); err != nil {
			return out, fmt.Errorf("decode %T: %w", out, err)
		}
		return out, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}
