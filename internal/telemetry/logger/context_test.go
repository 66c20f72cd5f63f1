package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Info("test message")
	if buf.Len() == 0 {
		t.Error("logger from context produced no output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("FromContext() without logger should return slog.Default()")
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "req-12345")
	if got := RequestIDFromContext(ctx); got != "req-12345" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
}

func TestL(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")
	ctx := WithLogger(context.Background(), l)

	L(ctx).Info("plain")
	if _, ok := decodeLine(t, buf)["request_id"]; ok {
		t.Error("request_id present without one in context")
	}

	buf.Reset()
	L(WithRequestID(ctx, "req-9")).Info("tagged")
	if got := decodeLine(t, buf)["request_id"]; got != "req-9" {
		t.Errorf("request_id = %v, want req-9", got)
	}
}
