package handler

import (
	"context"

	"github.com/abiibaabi/grr/internal/server/apirouter"
)

type callerKey struct{}

// WithCaller stores the authenticated caller on ctx.
func WithCaller(ctx context.Context, c apirouter.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored by the auth middleware.
func CallerFromContext(ctx context.Context) (apirouter.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(apirouter.Caller)
	return c, ok
}
