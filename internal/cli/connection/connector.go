package connection

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"sync/atomic"

	apiv1 "github.com/abiibaabi/grr/api/v1"
)

// DefaultPageSize is the page size requested when none is configured.
const DefaultPageSize = 1000

// Connector issues API calls.
type Connector interface {
	SendCall(ctx context.Context, call *Call) (*Response, error)
}

// Call is one API invocation.
type Call struct {
	Method string
	Args   map[string]any
}

// Config is fixed for the lifetime of a connector.
type Config struct {
	// PageSize is requested on every page of a list call. Must be positive.
	PageSize int

	// MaxPages caps how many pages one listing may fetch. 0 means no cap.
	MaxPages int
}

// DefaultConfig returns the default connector config.
func DefaultConfig() Config {
	return Config{PageSize: DefaultPageSize}
}

// Validate returns a *ConfigurationError describing the first bad field.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return &ConfigurationError{Field: "page size", Reason: "must be positive"}
	}
	if c.MaxPages < 0 {
		return &ConfigurationError{Field: "max pages", Reason: "must not be negative"}
	}
	return nil
}

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// Option configures a connector.
type Option func(*options)

// WithLogger sets the logger used for page-level debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client of an HTTPConnector.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fetchFunc requests the page starting at cursor.
type fetchFunc func(ctx context.Context, cursor string) (*apiv1.Page, error)

// Response is the result of one call: a single value, or a listing whose
// pages are fetched on demand.
type Response struct {
	method string
	list   bool
	value  any

	first    *apiv1.Page
	fetch    fetchFunc
	maxPages int

	pages    atomic.Int64
	consumed atomic.Bool
}

func newValueResponse(method string, v any) *Response {
	return &Response{method: method, value: v}
}

// newListResponse fetches the first page so errors on it surface from SendCall.
func newListResponse(ctx context.Context, method string, fetch fetchFunc, maxPages int) (*Response, error) {
	r := &Response{
		method:   method,
		list:     true,
		fetch:    fetch,
		maxPages: maxPages,
	}
	first, err := fetch(ctx, "")
	if err != nil {
		return nil, err
	}
	r.pages.Add(1)
	r.first = first
	return r, nil
}

// Method returns the method the response belongs to.
func (r *Response) Method() string {
	return r.method
}

// IsList reports whether the call was a list call.
func (r *Response) IsList() bool {
	return r.list
}

// Value returns the result of a single-result call, or nil for list calls.
func (r *Response) Value() any {
	return r.value
}

// Pages returns how many page requests have been issued so far.
func (r *Response) Pages() int {
	return int(r.pages.Load())
}

// Items yields every result item in server order. For a single-result call
// it yields the one value. The sequence can be ranged over once; a second
// iteration yields ErrResponseConsumed. Breaking out early stops fetching.
func (r *Response) Items(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if r.consumed.Swap(true) {
			yield(nil, ErrResponseConsumed)
			return
		}
		if !r.list {
			yield(r.value, nil)
			return
		}

		page := r.first
		r.first = nil
		for {
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if !page.More() {
				return
			}
			if r.maxPages > 0 && r.Pages() >= r.maxPages {
				yield(nil, &PaginationLimitError{Method: r.method, Pages: r.Pages()})
				return
			}

			next, err := r.fetch(ctx, page.NextCursor)
			if err != nil {
				yield(nil, err)
				return
			}
			r.pages.Add(1)
			page = next
		}
	}
}

// All drains Items into a slice.
func (r *Response) All(ctx context.Context) ([]any, error) {
	var out []any
	for item, err := range r.Items(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}
