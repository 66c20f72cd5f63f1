package apirouter

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/telemetry/metric"
)

// Request is one dispatch.
type Request struct {
	Method string
	Args   map[string]any
	Caller Caller

	// Cursor and PageSize apply to list methods only.
	Cursor   string
	PageSize int
}

// Config bounds list pages.
type Config struct {
	// DefaultPageSize is used when a request does not ask for a size.
	DefaultPageSize int

	// MaxPageSize clamps larger requests; callers keep paging transparently.
	MaxPageSize int
}

// DefaultConfig returns default paging bounds.
func DefaultConfig() Config {
	return Config{
		DefaultPageSize: 100,
		MaxPageSize:     1000,
	}
}

type (
	unaryFunc func(ctx context.Context, c Caller, args any) (any, error)
	pagedFunc func(ctx context.Context, c Caller, args any, offset, limit int) ([]any, int, error)
)

type method struct {
	info    apiv1.MethodInfo
	perm    domain.Permission
	newArgs func() any
	unary   unaryFunc
	paged   pagedFunc
}

// Router dispatches API calls to the services.
// It holds no per-call state and is safe for concurrent use.
type Router struct {
	methods map[string]*method
	cfg     Config
	metrics *metric.Metrics
	logger  *slog.Logger
	started time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the audit logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics enables call metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithConfig sets paging bounds.
func WithConfig(cfg Config) Option {
	return func(r *Router) {
		def := DefaultConfig()
		if cfg.DefaultPageSize <= 0 {
			cfg.DefaultPageSize = def.DefaultPageSize
		}
		if cfg.MaxPageSize <= 0 {
			cfg.MaxPageSize = def.MaxPageSize
		}
		if cfg.DefaultPageSize > cfg.MaxPageSize {
			cfg.DefaultPageSize = cfg.MaxPageSize
		}
		r.cfg = cfg
	}
}

func newRouter(opts ...Option) *Router {
	r := &Router{
		methods: make(map[string]*method),
		cfg:     DefaultConfig(),
		logger:  slog.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) register(m *method) {
	if _, dup := r.methods[m.info.Name]; dup {
		panic("apirouter: duplicate method " + m.info.Name)
	}
	r.methods[m.info.Name] = m
}

// unary registers a single-result method whose arguments decode into A.
func unary[A any](r *Router, name, desc string, perm domain.Permission,
	fn func(ctx context.Context, c Caller, args *A) (any, error)) {
	r.register(&method{
		info:    newInfo[A](name, desc, perm, false),
		perm:    perm,
		newArgs: func() any { return new(A) },
		unary: func(ctx context.Context, c Caller, args any) (any, error) {
			return fn(ctx, c, args.(*A))
		},
	})
}

// paged registers a list method. fn returns one window and the total count.
func paged[A any](r *Router, name, desc string, perm domain.Permission,
	fn func(ctx context.Context, c Caller, args *A, offset, limit int) ([]any, int, error)) {
	r.register(&method{
		info:    newInfo[A](name, desc, perm, true),
		perm:    perm,
		newArgs: func() any { return new(A) },
		paged: func(ctx context.Context, c Caller, args any, offset, limit int) ([]any, int, error) {
			return fn(ctx, c, args.(*A), offset, limit)
		},
	})
}

func newInfo[A any](name, desc string, perm domain.Permission, isPaged bool) apiv1.MethodInfo {
	info := apiv1.MethodInfo{
		Name:        name,
		Paged:       isPaged,
		Permission:  string(perm),
		Description: desc,
	}
	t := reflect.TypeOf((*A)(nil)).Elem()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		if arg, _, _ := strings.Cut(tag, ","); arg != "" {
			info.Args = append(info.Args, arg)
		}
	}
	return info
}

// Lookup describes a method, reporting false for unknown names.
func (r *Router) Lookup(name string) (apiv1.MethodInfo, bool) {
	m, ok := r.methods[name]
	if !ok {
		return apiv1.MethodInfo{}, false
	}
	return m.info, true
}

// Methods lists every method sorted by name.
func (r *Router) Methods() []apiv1.MethodInfo {
	out := make([]apiv1.MethodInfo, 0, len(r.methods))
	for _, m := range r.methods {
		out = append(out, m.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call dispatches a single-result method.
func (r *Router) Call(ctx context.Context, req *Request) (any, error) {
	var result any
	err := r.dispatch(ctx, req, false, func(m *method, args any) error {
		var err error
		result, err = m.unary(ctx, req.Caller, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CallPage dispatches one page of a list method.
func (r *Router) CallPage(ctx context.Context, req *Request) (*apiv1.Page, error) {
	var page *apiv1.Page
	err := r.dispatch(ctx, req, true, func(m *method, args any) error {
		offset, err := decodeCursor(req.Cursor)
		if err != nil {
			return err
		}
		limit := r.pageSize(req.PageSize)

		items, total, err := m.paged(ctx, req.Caller, args, offset, limit)
		if err != nil {
			return err
		}
		if items == nil {
			items = []any{}
		}
		page = &apiv1.Page{Items: items, Total: total}
		if next := offset + len(items); len(items) > 0 && next < total {
			page.NextCursor = encodeCursor(next)
		}
		r.metrics.ObservePage(m.info.Name, len(items))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *Router) pageSize(requested int) int {
	switch {
	case requested <= 0:
		return r.cfg.DefaultPageSize
	case requested > r.cfg.MaxPageSize:
		return r.cfg.MaxPageSize
	default:
		return requested
	}
}

// dispatch resolves, authorizes and decodes, runs fn, then records the outcome.
func (r *Router) dispatch(ctx context.Context, req *Request, wantPaged bool, fn func(*method, any) error) error {
	start := time.Now()
	err := r.run(ctx, req, wantPaged, fn)

	code := apiv1.CodeOK
	if err != nil {
		code = domain.GetErrorCode(err)
		if code == "" {
			code = domain.ErrInternalServer.Code
		}
	}
	elapsed := time.Since(start)
	r.metrics.ObserveCall(req.Method, req.Caller.Kind(), code, elapsed)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "api call",
		"method", req.Method,
		"caller", req.Caller.ID,
		"raw", req.Caller.Raw,
		"code", code,
		"duration_ms", elapsed.Milliseconds(),
	)
	return err
}

func (r *Router) run(ctx context.Context, req *Request, wantPaged bool, fn func(*method, any) error) error {
	m, ok := r.methods[req.Method]
	if !ok {
		return domain.ErrMethodNotFound.WithDetails(req.Method)
	}
	if (m.paged != nil) != wantPaged {
		if wantPaged {
			return domain.ErrNotPaged.WithDetails(req.Method + " returns a single result")
		}
		return domain.ErrNotPaged.WithDetails(req.Method + " is a list method")
	}
	if req.Caller.ID == "" {
		return domain.ErrPermissionDenied.WithDetails("no caller identity")
	}
	if !domain.HasPermission(req.Caller.Role, m.perm) {
		return domain.ErrPermissionDenied.WithDetails(
			fmt.Sprintf("role %s lacks %s", req.Caller.Role, m.perm),
		)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	args := m.newArgs()
	if err := decodeArgs(req.Args, args); err != nil {
		return err
	}
	return fn(m, args)
}

// decodeArgs fills out from in. Strings convert to numbers and booleans so
// shell input like ttl_seconds=3600 works; unknown keys are rejected.
func decodeArgs(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	if in == nil {
		return nil
	}
	if err := dec.Decode(in); err != nil {
		msg := strings.Join(strings.Fields(strings.ReplaceAll(err.Error(), "\n", "; ")), " ")
		return domain.ErrInvalidArgument.WithDetails(msg).WithCause(err)
	}
	return nil
}
