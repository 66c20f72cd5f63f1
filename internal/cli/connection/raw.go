package connection

import (
	"context"
	"log/slog"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/server/apirouter"
)

// Dispatcher is the part of the router a RawConnector drives.
// *apirouter.Router implements it.
type Dispatcher interface {
	Lookup(name string) (apiv1.MethodInfo, bool)
	Call(ctx context.Context, req *apirouter.Request) (any, error)
	CallPage(ctx context.Context, req *apirouter.Request) (*apiv1.Page, error)
}

// RawConnector calls an in-process router as a fixed, unverified principal.
//
// It keeps no per-call state, so one instance may serve concurrent callers.
// Router errors are returned as they are, never retried or translated.
type RawConnector struct {
	dispatcher Dispatcher
	principal  domain.RawPrincipal
	caller     apirouter.Caller
	cfg        Config
	logger     *slog.Logger
}

var _ Connector = (*RawConnector)(nil)

// NewRawConnector validates its inputs and returns an idle connector.
func NewRawConnector(d Dispatcher, principal domain.RawPrincipal, cfg Config, opts ...Option) (*RawConnector, error) {
	if d == nil {
		return nil, &ConfigurationError{Field: "dispatcher", Reason: "is required"}
	}
	if principal.IsZero() {
		return nil, &ConfigurationError{Field: "principal", Reason: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &RawConnector{
		dispatcher: d,
		principal:  principal,
		caller:     apirouter.CallerFromPrincipal(principal),
		cfg:        cfg,
		logger:     o.logger.With("component", "raw-connector", "actor", principal.ActorID()),
	}, nil
}

// Principal returns the identity attached to every call.
func (c *RawConnector) Principal() domain.RawPrincipal {
	return c.principal
}

// Config returns the connector configuration.
func (c *RawConnector) Config() Config {
	return c.cfg
}

// SendCall dispatches call. List calls return after the first page.
func (c *RawConnector) SendCall(ctx context.Context, call *Call) (*Response, error) {
	if call == nil || call.Method == "" {
		return nil, &InvalidCallError{Reason: "method is required"}
	}
	info, ok := c.dispatcher.Lookup(call.Method)
	if !ok {
		return nil, &InvalidCallError{Method: call.Method, Reason: "unknown method"}
	}

	if !info.Paged {
		v, err := c.dispatcher.Call(ctx, c.request(call, ""))
		if err != nil {
			return nil, err
		}
		return newValueResponse(call.Method, v), nil
	}

	return newListResponse(ctx, call.Method, func(ctx context.Context, cursor string) (*apiv1.Page, error) {
		page, err := c.dispatcher.CallPage(ctx, c.request(call, cursor))
		if err != nil {
			return nil, err
		}
		c.logger.Debug("page fetched", "method", call.Method, "items", len(page.Items), "more", page.More())
		return page, nil
	}, c.cfg.MaxPages)
}

func (c *RawConnector) request(call *Call, cursor string) *apirouter.Request {
	return &apirouter.Request{
		Method:   call.Method,
		Args:     call.Args,
		Caller:   c.caller,
		Cursor:   cursor,
		PageSize: c.cfg.PageSize,
	}
}
