package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/infra/buildinfo"
)

// HTTPConnector calls a remote api-server with an API key.
type HTTPConnector struct {
	baseURL  string
	client   *http.Client
	apiKeyID string
	apiKey   string
	cfg      Config
	logger   *slog.Logger
}

var _ Connector = (*HTTPConnector)(nil)

// NewHTTPConnector creates a connector for server. A missing scheme means http.
func NewHTTPConnector(server, apiKeyID, apiKey string, cfg Config, opts ...Option) (*HTTPConnector, error) {
	if strings.TrimSpace(server) == "" {
		return nil, &ConfigurationError{Field: "server", Reason: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	o := buildOptions(opts)
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPConnector{
		baseURL:  baseURL,
		client:   client,
		apiKeyID: apiKeyID,
		apiKey:   apiKey,
		cfg:      cfg,
		logger:   o.logger.With("component", "http-connector"),
	}, nil
}

// BaseURL returns the server base URL.
func (c *HTTPConnector) BaseURL() string {
	return c.baseURL
}

// Ping checks that the server answers /health.
func (c *HTTPConnector) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping %s: status %d", c.baseURL, resp.StatusCode)
	}
	return nil
}

// SendCall posts call to the server. List calls return after the first page.
func (c *HTTPConnector) SendCall(ctx context.Context, call *Call) (*Response, error) {
	if call == nil || call.Method == "" {
		return nil, &InvalidCallError{Reason: "method is required"}
	}

	env, err := c.post(ctx, call, "")
	if err != nil {
		return nil, c.callErr(call.Method, err)
	}
	if !env.Paged {
		return newValueResponse(call.Method, env.Data), nil
	}

	first := true
	return newListResponse(ctx, call.Method, func(ctx context.Context, cursor string) (*apiv1.Page, error) {
		e := env
		if !first {
			var err error
			if e, err = c.post(ctx, call, cursor); err != nil {
				return nil, err
			}
		}
		first = false

		page, err := decodePage(e.Data)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("page fetched", "method", call.Method, "items", len(page.Items), "more", page.More())
		return page, nil
	}, c.cfg.MaxPages)
}

// envelope mirrors apiv1.Response with Data left encoded.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Details   string          `json:"details"`
	Paged     bool            `json:"paged"`
	Data      json.RawMessage `json:"data"`
}

type wirePage struct {
	Items      []json.RawMessage `json:"items"`
	NextCursor string            `json:"next_cursor"`
	Total      int               `json:"total"`
}

func decodePage(data json.RawMessage) (*apiv1.Page, error) {
	var wp wirePage
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	items := make([]any, len(wp.Items))
	for i, raw := range wp.Items {
		items[i] = raw
	}
	return &apiv1.Page{Items: items, NextCursor: wp.NextCursor, Total: wp.Total}, nil
}

func (c *HTTPConnector) post(ctx context.Context, call *Call, cursor string) (*envelope, error) {
	body, err := json.Marshal(&apiv1.CallRequest{
		Args:     call.Args,
		Cursor:   cursor,
		PageSize: c.cfg.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/call/"+url.PathEscape(call.Method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", call.Method, err)
	}
	return parseEnvelope(resp)
}

// addHeaders adds authentication and common headers.
func (c *HTTPConnector) addHeaders(req *http.Request) {
	if c.apiKeyID != "" && c.apiKey != "" {
		req.Header.Set("X-API-Key-ID", c.apiKeyID)
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("User-Agent", "grr-shell/"+buildinfo.Version)
}

// parseEnvelope decodes the reply. Error replies become *domain.DomainError
// carrying the server's code, so errors.Is matches the same sentinels as
// in-process calls.
func parseEnvelope(resp *http.Response) (*envelope, error) {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Code != "" {
			derr := domain.NewDomainError(env.Code, env.Message)
			if env.Details != "" {
				derr = derr.WithDetails(env.Details)
			}
			return nil, derr
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse response: %w", decodeErr)
	}
	return &env, nil
}

func (c *HTTPConnector) callErr(method string, err error) error {
	if domain.IsDomainError(err, domain.ErrMethodNotFound.Code) {
		return &InvalidCallError{Method: method, Reason: "unknown method", Err: err}
	}
	return err
}
