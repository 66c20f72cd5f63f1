package apiclient

import (
	"context"

	apiv1 "github.com/abiibaabi/grr/api/v1"
)

// ListSessions returns every matching session, following all pages.
func (c *Client) ListSessions(ctx context.Context, args apiv1.ListSessionsArgs) ([]apiv1.SessionView, error) {
	return all[apiv1.SessionView](ctx, c, "ListSessions", args)
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*apiv1.SessionView, error) {
	return ptr(one[apiv1.SessionView](ctx, c, "GetSession", apiv1.SessionIDArgs{SessionID: sessionID}))
}

// CreateSession creates a session. The token in the result is not stored
// anywhere and cannot be fetched again.
func (c *Client) CreateSession(ctx context.Context, args apiv1.CreateSessionArgs) (*apiv1.CreateSessionResult, error) {
	return ptr(one[apiv1.CreateSessionResult](ctx, c, "CreateSession", args))
}

func (c *Client) RenewSession(ctx context.Context, sessionID string, ttlSeconds int64) (*apiv1.SessionView, error) {
	return ptr(one[apiv1.SessionView](ctx, c, "RenewSession", apiv1.RenewSessionArgs{
		SessionID:  sessionID,
		TTLSeconds: ttlSeconds,
	}))
}

func (c *Client) RevokeSession(ctx context.Context, sessionID string) (*apiv1.RevokeResult, error) {
	return ptr(one[apiv1.RevokeResult](ctx, c, "RevokeSession", apiv1.SessionIDArgs{SessionID: sessionID}))
}

func (c *Client) RevokeUserSessions(ctx context.Context, userID string) (*apiv1.RevokeUserSessionsResult, error) {
	return ptr(one[apiv1.RevokeUserSessionsResult](ctx, c, "RevokeUserSessions", apiv1.UserArgs{UserID: userID}))
}

func (c *Client) ValidateToken(ctx context.Context, args apiv1.ValidateTokenArgs) (*apiv1.ValidateTokenResult, error) {
	return ptr(one[apiv1.ValidateTokenResult](ctx, c, "ValidateToken", args))
}
