package apirouter

import (
	"context"
	"time"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/core/service"
	"github.com/abiibaabi/grr/internal/infra/buildinfo"
)

// Services are the business services the router exposes.
type Services struct {
	Sessions *service.SessionService
	Tokens   *service.TokenService
	Auth     *service.AuthService
}

// NoArgs is the argument type of methods that take none.
type NoArgs struct{}

// New builds a router exposing every admin method over svc.
func New(svc Services, opts ...Option) *Router {
	r := newRouter(opts...)

	unary(r, "ListMethods", "Describe the available methods.", domain.PermNone,
		func(_ context.Context, _ Caller, _ *NoArgs) (any, error) {
			return r.Methods(), nil
		})

	unary(r, "GetStatusSummary", "Server version, uptime and object counts.", domain.PermSystemStatus,
		func(ctx context.Context, c Caller, _ *NoArgs) (any, error) {
			sessions, err := svc.Sessions.Count(ctx)
			if err != nil {
				return nil, err
			}
			_, keys, err := svc.Auth.ListAPIKeys(ctx, &service.APIKeyFilter{Limit: 1})
			if err != nil {
				return nil, err
			}
			info := buildinfo.Get()
			return apiv1.StatusSummary{
				Version:       info.Version,
				Commit:        info.Commit,
				UptimeSeconds: int64(time.Since(r.started).Seconds()),
				Sessions:      sessions,
				APIKeys:       keys,
				Caller:        c.ID,
				RawAccess:     c.Raw,
			}, nil
		})

	registerSessionMethods(r, svc)
	registerAPIKeyMethods(r, svc)
	return r
}

func registerSessionMethods(r *Router, svc Services) {
	paged(r, "ListSessions", "List live sessions, oldest first.", domain.PermSessionList,
		func(ctx context.Context, _ Caller, a *apiv1.ListSessionsArgs, offset, limit int) ([]any, int, error) {
			sessions, total, err := svc.Sessions.List(ctx, &service.SessionFilter{
				UserID:         a.UserID,
				DeviceID:       a.DeviceID,
				CreatedBy:      a.CreatedBy,
				IncludeExpired: a.IncludeExpired,
				Offset:         offset,
				Limit:          limit,
			})
			if err != nil {
				return nil, 0, err
			}
			items := make([]any, len(sessions))
			for i, s := range sessions {
				items[i] = sessionView(s)
			}
			return items, total, nil
		})

	unary(r, "GetSession", "Fetch one session.", domain.PermSessionRead,
		func(ctx context.Context, _ Caller, a *apiv1.SessionIDArgs) (any, error) {
			s, err := svc.Sessions.Get(ctx, a.SessionID)
			if err != nil {
				return nil, err
			}
			return sessionView(s), nil
		})

	unary(r, "CreateSession", "Create a session and issue its token.", domain.PermSessionCreate,
		func(ctx context.Context, c Caller, a *apiv1.CreateSessionArgs) (any, error) {
			if a.TTLSeconds < 0 {
				return nil, domain.ErrInvalidArgument.WithDetails("ttl_seconds must not be negative")
			}
			resp, err := svc.Sessions.Create(ctx, &service.CreateSessionRequest{
				UserID:    a.UserID,
				DeviceID:  a.DeviceID,
				IPAddress: a.IPAddress,
				UserAgent: a.UserAgent,
				Data:      a.Data,
				TTL:       time.Duration(a.TTLSeconds) * time.Second,
				CreatedBy: c.ID,
			})
			if err != nil {
				return nil, err
			}
			return apiv1.CreateSessionResult{
				Session: sessionView(resp.Session),
				Token:   resp.Token,
			}, nil
		})

	unary(r, "RenewSession", "Reset a session's expiry to now plus ttl_seconds.", domain.PermSessionRenew,
		func(ctx context.Context, _ Caller, a *apiv1.RenewSessionArgs) (any, error) {
			s, err := svc.Sessions.Renew(ctx, a.SessionID, time.Duration(a.TTLSeconds)*time.Second)
			if err != nil {
				return nil, err
			}
			return sessionView(s), nil
		})

	unary(r, "RevokeSession", "Delete a session. Missing sessions are not an error.", domain.PermSessionRevoke,
		func(ctx context.Context, _ Caller, a *apiv1.SessionIDArgs) (any, error) {
			revoked, err := svc.Sessions.Revoke(ctx, a.SessionID)
			if err != nil {
				return nil, err
			}
			return apiv1.RevokeResult{SessionID: a.SessionID, Revoked: revoked}, nil
		})

	unary(r, "RevokeUserSessions", "Delete every session of a user.", domain.PermSessionRevokeAll,
		func(ctx context.Context, _ Caller, a *apiv1.UserArgs) (any, error) {
			n, err := svc.Sessions.RevokeByUser(ctx, a.UserID)
			if err != nil {
				return nil, err
			}
			return apiv1.RevokeUserSessionsResult{UserID: a.UserID, Revoked: n}, nil
		})

	unary(r, "ValidateToken", "Resolve a session token.", domain.PermTokenValidate,
		func(ctx context.Context, _ Caller, a *apiv1.ValidateTokenArgs) (any, error) {
			res, err := svc.Tokens.Validate(ctx, a.Token, a.Touch, a.ClientIP)
			if err != nil {
				return nil, err
			}
			out := apiv1.ValidateTokenResult{Valid: res.Valid}
			if res.Valid {
				v := sessionView(res.Session)
				out.Session = &v
			}
			return out, nil
		})

	unary(r, "CollectGarbage", "Remove expired sessions now.", domain.PermSystemGC,
		func(ctx context.Context, _ Caller, _ *NoArgs) (any, error) {
			n, err := svc.Sessions.GC(ctx)
			if err != nil {
				return nil, err
			}
			return apiv1.GCResult{Removed: n}, nil
		})
}

func registerAPIKeyMethods(r *Router, svc Services) {
	paged(r, "ListAPIKeys", "List API keys, oldest first. Secrets are never returned.", domain.PermAPIKeyList,
		func(ctx context.Context, _ Caller, a *apiv1.ListAPIKeysArgs, offset, limit int) ([]any, int, error) {
			keys, total, err := svc.Auth.ListAPIKeys(ctx, &service.APIKeyFilter{
				Role:   domain.Role(a.Role),
				Offset: offset,
				Limit:  limit,
			})
			if err != nil {
				return nil, 0, err
			}
			items := make([]any, len(keys))
			for i, k := range keys {
				items[i] = apiKeyView(k)
			}
			return items, total, nil
		})

	unary(r, "CreateAPIKey", "Create an API key. The secret is shown once.", domain.PermAPIKeyCreate,
		func(ctx context.Context, c Caller, a *apiv1.CreateAPIKeyArgs) (any, error) {
			key, secret, err := svc.Auth.CreateAPIKey(ctx, &service.CreateAPIKeyRequest{
				Name:        a.Name,
				Role:        a.Role,
				Description: a.Description,
				RateLimit:   a.RateLimit,
				CreatedBy:   c.ID,
			})
			if err != nil {
				return nil, err
			}
			return apiv1.APIKeySecretResult{Key: apiKeyView(key), Secret: secret}, nil
		})

	unary(r, "SetAPIKeyStatus", "Enable or disable an API key.", domain.PermAPIKeyDisable,
		func(ctx context.Context, _ Caller, a *apiv1.SetAPIKeyStatusArgs) (any, error) {
			if a.KeyID == "" {
				return nil, domain.ErrMissingArgument.WithDetails("key_id is required")
			}
			key, err := svc.Auth.SetAPIKeyStatus(ctx, a.KeyID, a.Enabled)
			if err != nil {
				return nil, err
			}
			return apiKeyView(key), nil
		})

	unary(r, "RotateAPIKey", "Replace an API key's secret. The new secret is shown once.", domain.PermAPIKeyRotate,
		func(ctx context.Context, _ Caller, a *apiv1.KeyIDArgs) (any, error) {
			if a.KeyID == "" {
				return nil, domain.ErrMissingArgument.WithDetails("key_id is required")
			}
			key, secret, err := svc.Auth.RotateAPIKey(ctx, a.KeyID)
			if err != nil {
				return nil, err
			}
			return apiv1.APIKeySecretResult{Key: apiKeyView(key), Secret: secret}, nil
		})
}
