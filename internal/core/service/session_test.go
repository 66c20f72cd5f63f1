package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abiibaabi/grr/internal/core/domain"
)

func newTestSessionService(repo SessionRepository) *SessionService {
	return NewSessionService(repo, SessionServiceConfig{MaxSessionsPerUser: 3}, nil)
}

func TestSessionService_Create(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &CreateSessionRequest{
		UserID:    "alice",
		DeviceID:  "laptop",
		Data:      map[string]string{"k": "v"},
		TTL:       time.Hour,
		CreatedBy: "raw:ops",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !domain.ValidateTokenFormat(resp.Token) {
		t.Errorf("token %q has invalid format", resp.Token)
	}
	if resp.Session.TokenHash != domain.HashToken(resp.Token) {
		t.Error("stored hash should match the issued token")
	}
	if resp.Session.CreatedBy != "raw:ops" {
		t.Errorf("CreatedBy = %q, want raw:ops", resp.Session.CreatedBy)
	}

	got, err := svc.Get(ctx, resp.Session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Data["k"] != "v" {
		t.Errorf("Data = %v", got.Data)
	}
}

func TestSessionService_CreateErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *CreateSessionRequest
		want *domain.DomainError
	}{
		{"missing user", &CreateSessionRequest{}, domain.ErrMissingArgument},
		{"negative ttl", &CreateSessionRequest{UserID: "u", TTL: -time.Second}, domain.ErrInvalidArgument},
		{"ttl too long", &CreateSessionRequest{UserID: "u", TTL: 365 * 24 * time.Hour}, domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestSessionService(newMockSessionRepo())
			_, err := svc.Create(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSessionService_Quota(t *testing.T) {
	svc := newTestSessionService(newMockSessionRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, &CreateSessionRequest{UserID: "bob"}); err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}
	_, err := svc.Create(ctx, &CreateSessionRequest{UserID: "bob"})
	if !errors.Is(err, domain.ErrSessionQuotaExceeded) {
		t.Errorf("Create() error = %v, want ErrSessionQuotaExceeded", err)
	}
}

func TestSessionService_StorageErrorWrapped(t *testing.T) {
	repo := newMockSessionRepo()
	repo.err = errors.New("disk on fire")
	svc := newTestSessionService(repo)

	_, _, err := svc.List(context.Background(), nil)
	if !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("List() error = %v, want ErrStorageError", err)
	}
}

func TestSessionService_GetMalformedID(t *testing.T) {
	svc := newTestSessionService(newMockSessionRepo())
	_, err := svc.Get(context.Background(), "not-an-id")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Get() error = %v, want ErrInvalidArgument", err)
	}

	id, _ := domain.GenerateSessionID()
	_, err = svc.Get(context.Background(), id)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionService_Renew(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	resp, _ := svc.Create(ctx, &CreateSessionRequest{UserID: "u", TTL: time.Minute})
	renewed, err := svc.Renew(ctx, resp.Session.ID, 2*time.Hour)
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}
	if renewed.ExpiresAt <= resp.Session.ExpiresAt {
		t.Error("Renew should push expiry forward")
	}
	if renewed.Version != resp.Session.Version+1 {
		t.Errorf("Version = %d, want %d", renewed.Version, resp.Session.Version+1)
	}

	if _, err := svc.Renew(ctx, resp.Session.ID, -time.Second); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Renew(-1s) error = %v, want ErrInvalidArgument", err)
	}
}

func TestSessionService_RenewDefaultTTL(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, SessionServiceConfig{DefaultTTL: 3 * time.Hour}, nil)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &CreateSessionRequest{UserID: "u", TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	renewed, err := svc.Renew(ctx, resp.Session.ID, 0)
	if err != nil {
		t.Fatalf("Renew(0) error = %v", err)
	}
	if remaining := renewed.TTLDuration(); remaining < 2*time.Hour || remaining > 3*time.Hour {
		t.Errorf("remaining ttl = %s, want about 3h", remaining)
	}
}

func TestSessionService_RevokeIdempotent(t *testing.T) {
	svc := newTestSessionService(newMockSessionRepo())
	ctx := context.Background()
	resp, _ := svc.Create(ctx, &CreateSessionRequest{UserID: "u"})

	removed, err := svc.Revoke(ctx, resp.Session.ID)
	if err != nil || !removed {
		t.Fatalf("Revoke() = %v, %v; want true, nil", removed, err)
	}
	removed, err = svc.Revoke(ctx, resp.Session.ID)
	if err != nil || removed {
		t.Fatalf("second Revoke() = %v, %v; want false, nil", removed, err)
	}
}

func TestSessionService_RevokeByUserAndGC(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	svc.Create(ctx, &CreateSessionRequest{UserID: "a"})
	svc.Create(ctx, &CreateSessionRequest{UserID: "a"})
	expiring, _ := svc.Create(ctx, &CreateSessionRequest{UserID: "b"})

	n, err := svc.RevokeByUser(ctx, "a")
	if err != nil || n != 2 {
		t.Fatalf("RevokeByUser() = %d, %v; want 2, nil", n, err)
	}

	repo.sessions[expiring.Session.ID].ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
	n, err = svc.GC(ctx)
	if err != nil || n != 1 {
		t.Fatalf("GC() = %d, %v; want 1, nil", n, err)
	}
	if count, _ := svc.Count(ctx); count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
}
