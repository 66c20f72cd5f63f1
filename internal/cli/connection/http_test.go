package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
)

// fakeAPI answers /v1/call/{method} like api-server does: ListThings is
// paged over total integers, GetThing returns an object, anything else 404s.
type fakeAPI struct {
	t     *testing.T
	total int

	mu     sync.Mutex
	bodies []apiv1.CallRequest
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Header.Get("X-API-Key-ID") != "key-1" || r.Header.Get("X-API-Key") != "s3cret" {
		writeEnvelope(w, http.StatusUnauthorized, apiv1.Response{Code: domain.ErrAPIKeyMissing.Code, Message: domain.ErrAPIKeyMissing.Message})
		return
	}
	if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
		f.t.Errorf("request %s with content type %q", r.Method, r.Header.Get("Content-Type"))
	}

	var body apiv1.CallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Errorf("decode body: %v", err)
	}
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	switch strings.TrimPrefix(r.URL.Path, "/v1/call/") {
	case "GetThing":
		writeEnvelope(w, http.StatusOK, apiv1.Response{Code: apiv1.CodeOK, Data: map[string]any{"name": body.Args["name"]}})
	case "ListThings":
		offset, _ := strconv.Atoi(body.Cursor)
		end := min(offset+body.PageSize, f.total)
		page := apiv1.Page{Items: []any{}, Total: f.total}
		for i := offset; i < end; i++ {
			page.Items = append(page.Items, i)
		}
		if end < f.total {
			page.NextCursor = strconv.Itoa(end)
		}
		writeEnvelope(w, http.StatusOK, apiv1.Response{Code: apiv1.CodeOK, Paged: true, Data: page})
	case "Forbidden":
		writeEnvelope(w, http.StatusForbidden, apiv1.Response{
			Code:    domain.ErrPermissionDenied.Code,
			Message: domain.ErrPermissionDenied.Message,
			Details: "role validator lacks session.create",
		})
	default:
		writeEnvelope(w, http.StatusNotFound, apiv1.Response{Code: domain.ErrMethodNotFound.Code, Message: domain.ErrMethodNotFound.Message})
	}
}

func writeEnvelope(w http.ResponseWriter, status int, resp apiv1.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func newTestHTTPConnector(t *testing.T, total int, cfg Config) (*HTTPConnector, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t, total: total}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewHTTPConnector(srv.URL, "key-1", "s3cret", cfg)
	if err != nil {
		t.Fatalf("NewHTTPConnector() error = %v", err)
	}
	return c, api
}

func TestNewHTTPConnector(t *testing.T) {
	tests := []struct {
		name       string
		server     string
		wantPrefix string
	}{
		{"with http prefix", "http://localhost:8080", "http://localhost:8080"},
		{"with https prefix", "https://localhost:8080", "https://localhost:8080"},
		{"without prefix", "localhost:8080", "http://localhost:8080"},
		{"trailing slash", "api.example.com/", "http://api.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewHTTPConnector(tt.server, "id", "secret", DefaultConfig())
			if err != nil {
				t.Fatalf("NewHTTPConnector() error = %v", err)
			}
			if c.BaseURL() != tt.wantPrefix {
				t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), tt.wantPrefix)
			}
		})
	}

	if _, err := NewHTTPConnector("", "id", "secret", DefaultConfig()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("empty server error = %v, want ErrConfiguration", err)
	}
	if _, err := NewHTTPConnector("localhost", "id", "secret", Config{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero page size error = %v, want ErrConfiguration", err)
	}
}

func TestHTTPConnector_Pagination(t *testing.T) {
	c, api := newTestHTTPConnector(t, 25, Config{PageSize: 10})

	resp, err := c.SendCall(context.Background(), &Call{Method: "ListThings"})
	if err != nil {
		t.Fatalf("SendCall() error = %v", err)
	}
	items, err := resp.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(items) != 25 {
		t.Fatalf("got %d items, want 25", len(items))
	}
	for i, item := range items {
		raw, ok := item.(json.RawMessage)
		if !ok || string(raw) != strconv.Itoa(i) {
			t.Fatalf("item %d = %v", i, item)
		}
	}

	wantCursors := []string{"", "10", "20"}
	if len(api.bodies) != len(wantCursors) {
		t.Fatalf("server saw %d requests, want %d", len(api.bodies), len(wantCursors))
	}
	for i, body := range api.bodies {
		if body.Cursor != wantCursors[i] || body.PageSize != 10 {
			t.Errorf("request %d = %+v", i, body)
		}
	}
}

func TestHTTPConnector_SingleResult(t *testing.T) {
	c, _ := newTestHTTPConnector(t, 0, DefaultConfig())

	resp, err := c.SendCall(context.Background(), &Call{Method: "GetThing", Args: map[string]any{"name": "x"}})
	if err != nil {
		t.Fatalf("SendCall() error = %v", err)
	}
	raw, ok := resp.Value().(json.RawMessage)
	if !ok {
		t.Fatalf("Value() = %T, want json.RawMessage", resp.Value())
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil || got["name"] != "x" {
		t.Errorf("Value() = %s, %v", raw, err)
	}
}

func TestHTTPConnector_Errors(t *testing.T) {
	c, _ := newTestHTTPConnector(t, 0, DefaultConfig())

	_, err := c.SendCall(context.Background(), &Call{Method: "Nope"})
	if !errors.Is(err, ErrInvalidCall) || !errors.Is(err, domain.ErrMethodNotFound) {
		t.Errorf("unknown method error = %v, want InvalidCallError wrapping ErrMethodNotFound", err)
	}

	_, err = c.SendCall(context.Background(), &Call{Method: "Forbidden"})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("forbidden error = %v, want ErrPermissionDenied", err)
	}
	if !strings.Contains(err.Error(), "lacks session.create") {
		t.Errorf("error %q lost its details", err)
	}

	if _, err := c.SendCall(context.Background(), &Call{}); !errors.Is(err, ErrInvalidCall) {
		t.Errorf("empty method error = %v, want ErrInvalidCall", err)
	}
}

func TestHTTPConnector_BadCredentials(t *testing.T) {
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api)
	defer srv.Close()

	c, err := NewHTTPConnector(srv.URL, "key-1", "wrong", DefaultConfig())
	if err != nil {
		t.Fatalf("NewHTTPConnector() error = %v", err)
	}
	if _, err := c.SendCall(context.Background(), &Call{Method: "GetThing"}); !errors.Is(err, domain.ErrAPIKeyMissing) {
		t.Errorf("SendCall() error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestHTTPConnector_Ping(t *testing.T) {
	c, _ := newTestHTTPConnector(t, 0, DefaultConfig())
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down, err := NewHTTPConnector("127.0.0.1:1", "", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewHTTPConnector() error = %v", err)
	}
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping() to a closed port should fail")
	}
}
