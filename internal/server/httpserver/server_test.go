package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/cli/apiclient"
	"github.com/abiibaabi/grr/internal/cli/connection"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/core/service"
	"github.com/abiibaabi/grr/internal/server/apirouter"
	"github.com/abiibaabi/grr/internal/server/config"
	"github.com/abiibaabi/grr/internal/storage"
	"github.com/abiibaabi/grr/internal/telemetry/metric"
)

type testEnv struct {
	srv         *httptest.Server
	auth        *service.AuthService
	adminID     string
	adminSecret string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true}, nil)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reg := metric.NewRegistry()
	m, err := metric.New(reg)
	if err != nil {
		t.Fatalf("metric.New() error = %v", err)
	}

	sessions := storage.NewSessionStore(db)
	auth := service.NewAuthService(storage.NewAPIKeyStore(db), service.DefaultAuthServiceConfig(), quiet)
	router := apirouter.New(apirouter.Services{
		Sessions: service.NewSessionService(sessions, service.DefaultSessionServiceConfig(), quiet),
		Tokens:   service.NewTokenService(sessions),
		Auth:     auth,
	}, apirouter.WithLogger(quiet), apirouter.WithMetrics(m),
		apirouter.WithConfig(apirouter.Config{DefaultPageSize: 4, MaxPageSize: 4}))

	srv := httptest.NewServer(NewRouter(&RouterConfig{
		Router:              router,
		Auth:                auth,
		Logger:              quiet,
		Registry:            reg,
		MetricsAuthRequired: true,
	}))
	t.Cleanup(srv.Close)

	admin, secret := createKey(t, auth, domain.RoleAdmin, 10000)
	return &testEnv{srv: srv, auth: auth, adminID: admin.KeyID, adminSecret: secret}
}

// client returns an HTTP client for the key. A pageSize of 0 uses the
// connector default.
func (e *testEnv) client(t *testing.T, id, secret string, pageSize int) *apiclient.Client {
	t.Helper()
	if pageSize == 0 {
		pageSize = connection.DefaultPageSize
	}
	conn, err := connection.NewHTTPConnector(e.srv.URL, id, secret, connection.Config{PageSize: pageSize})
	if err != nil {
		t.Fatalf("NewHTTPConnector() error = %v", err)
	}
	return apiclient.New(conn)
}

func (e *testEnv) post(t *testing.T, path, body string, withKey bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if withKey {
		req.Header.Set("X-API-Key-ID", e.adminID)
		req.Header.Set("X-API-Key", e.adminSecret)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)
	conn, err := connection.NewHTTPConnector(env.srv.URL, "", "", connection.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestServer_PaginationEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client(t, env.adminID, env.adminSecret, 3)

	for i := 0; i < 10; i++ {
		if _, err := c.CreateSession(ctx, apiv1.CreateSessionArgs{
			UserID: fmt.Sprintf("u%d", i%2),
			Data:   map[string]string{"n": fmt.Sprint(i)},
		}); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	all, err := c.ListSessions(ctx, apiv1.ListSessionsArgs{})
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("ListSessions() = %d sessions, want 10", len(all))
	}
	seen := make(map[string]bool)
	for _, s := range all {
		if seen[s.ID] {
			t.Errorf("session %s listed twice", s.ID)
		}
		seen[s.ID] = true
		if s.CreatedBy != env.adminID {
			t.Errorf("CreatedBy = %q, want %q", s.CreatedBy, env.adminID)
		}
	}

	resp, err := c.Raw(ctx, "ListSessions", map[string]any{"user_id": "u1"})
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	items, err := resp.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(items) != 5 {
		t.Errorf("u1 sessions = %d, want 5", len(items))
	}
	if resp.Pages() != 2 {
		t.Errorf("Pages() = %d, want 2 at page size 3", resp.Pages())
	}
}

func TestServer_SingleResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client(t, env.adminID, env.adminSecret, 0)

	created, err := c.CreateSession(ctx, apiv1.CreateSessionArgs{UserID: "alice", TTLSeconds: 600})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	v, err := c.ValidateToken(ctx, apiv1.ValidateTokenArgs{Token: created.Token})
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if !v.Valid || v.Session == nil || v.Session.ID != created.Session.ID {
		t.Errorf("ValidateToken() = %+v", v)
	}

	status, err := c.StatusSummary(ctx)
	if err != nil {
		t.Fatalf("StatusSummary() error = %v", err)
	}
	if status.Sessions != 1 || status.APIKeys != 1 || status.RawAccess {
		t.Errorf("StatusSummary() = %+v", status)
	}

	methods, err := c.Methods(ctx)
	if err != nil {
		t.Fatalf("Methods() error = %v", err)
	}
	if len(methods) == 0 {
		t.Error("Methods() returned nothing")
	}
}

func TestServer_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client(t, env.adminID, env.adminSecret, 0)

	_, err := c.GetSession(ctx, "ses-missing")
	if err == nil {
		t.Fatal("GetSession(missing) expected error")
	}

	_, err = c.Raw(ctx, "NoSuchMethod", nil)
	if !errors.Is(err, connection.ErrInvalidCall) || !errors.Is(err, domain.ErrMethodNotFound) {
		t.Errorf("unknown method error = %v", err)
	}

	_, err = c.Raw(ctx, "CreateSession", map[string]any{"user_id": "x", "bogus": 1})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown arg error = %v, want invalid argument", err)
	}

	validator, vSecret := createKey(t, env.auth, domain.RoleValidator, 0)
	vc := env.client(t, validator.KeyID, vSecret, 0)
	if _, err := vc.CreateSession(ctx, apiv1.CreateSessionArgs{UserID: "x"}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("validator CreateSession error = %v, want permission denied", err)
	}

	anon := env.client(t, "", "", 0)
	if _, err := anon.Methods(ctx); !errors.Is(err, domain.ErrAPIKeyMissing) {
		t.Errorf("anonymous error = %v, want api key missing", err)
	}
}

func TestServer_CallBody(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		path     string
		body     string
		withKey  bool
		wantCode int
		wantErr  string
	}{
		{"empty body", "/v1/call/GetStatusSummary", "", true, http.StatusOK, apiv1.CodeOK},
		{"numbers decode", "/v1/call/CreateSession", `{"args":{"user_id":"n","ttl_seconds":120}}`, true, http.StatusOK, apiv1.CodeOK},
		{"bad json", "/v1/call/GetStatusSummary", `{`, true, http.StatusBadRequest, domain.ErrBadRequest.Code},
		{"bad cursor", "/v1/call/ListSessions", `{"cursor":"!!"}`, true, http.StatusBadRequest, domain.ErrInvalidCursor.Code},
		{"unknown method", "/v1/call/Nope", `{}`, true, http.StatusNotFound, domain.ErrMethodNotFound.Code},
		{"no key", "/v1/call/GetStatusSummary", `{}`, false, http.StatusUnauthorized, domain.ErrAPIKeyMissing.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.post(t, tt.path, tt.body, tt.withKey)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			got := decodeEnvelope(t, resp.Body)
			if got.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", got.Code, tt.wantErr)
			}
			if got.RequestID == "" {
				t.Error("request_id missing from envelope")
			}
		})
	}
}

func TestServer_PagedFlag(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/call/ListAPIKeys", `{}`, true)
	list := decodeEnvelope(t, resp.Body)
	if !list.Paged {
		t.Error("ListAPIKeys reply not marked paged")
	}

	resp = env.post(t, "/v1/call/GetStatusSummary", `{}`, true)
	if decodeEnvelope(t, resp.Body).Paged {
		t.Error("GetStatusSummary reply marked paged")
	}
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/v1/call/GetStatusSummary", `{}`, true)

	resp, err := http.Get(env.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous /metrics status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+env.adminID+":"+env.adminSecret)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "grr_api_calls_total") {
		t.Error("/metrics missing grr_api_calls_total")
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := config.Default().Server.HTTP
	s := New(cfg, okHandler, quiet)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil after Shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return")
	}
}
