package service

import (
	"container/list"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/pkg/cmap"
)

// APIKeyRepository is the storage interface for API keys.
// Get returns domain.ErrAPIKeyNotFound for missing ids.
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	Get(ctx context.Context, keyID string) (*domain.APIKey, error)
	Update(ctx context.Context, key *domain.APIKey) error

	// List returns one window of keys, oldest first, and the total match count.
	List(ctx context.Context, filter *APIKeyFilter) ([]*domain.APIKey, int, error)
}

// APIKeyFilter selects API keys.
type APIKeyFilter struct {
	Role   domain.Role
	Offset int
	Limit  int // 0 means no limit
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	CacheTTL  time.Duration
	CacheSize int
}

// DefaultAuthServiceConfig returns default configuration.
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		CacheTTL:  60 * time.Second,
		CacheSize: 10000,
	}
}

// AuthService handles API key management, authentication and rate limiting.
type AuthService struct {
	repo         APIKeyRepository
	cache        *APIKeyCache
	rateLimiters *RateLimiterRegistry
	logger       *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo APIKeyRepository, cfg AuthServiceConfig, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultAuthServiceConfig().CacheTTL
	}
	return &AuthService{
		repo:         repo,
		cache:        NewAPIKeyCache(cfg.CacheSize, cfg.CacheTTL),
		rateLimiters: NewRateLimiterRegistry(),
		logger:       logger,
	}
}

// ValidateAPIKey authenticates keyID/secret and returns the key.
// A successful argon2 check is cached so repeated requests stay cheap.
func (s *AuthService) ValidateAPIKey(ctx context.Context, keyID, secret string) (*domain.APIKey, error) {
	if keyID == "" || secret == "" {
		return nil, domain.ErrAPIKeyMissing
	}

	if cached := s.cache.Get(keyID, secret); cached != nil {
		if !cached.IsActive() {
			return nil, domain.ErrAPIKeyDisabled
		}
		return cached, nil
	}

	key, err := s.repo.Get(ctx, keyID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrAPIKeyNotFound.Code) {
			return nil, domain.ErrAPIKeyInvalid
		}
		return nil, storageErr(err)
	}
	if !key.IsActive() {
		return nil, domain.ErrAPIKeyDisabled
	}
	if !key.VerifySecret(secret) {
		return nil, domain.ErrAPIKeyInvalid.WithDetails("invalid secret")
	}

	key.Touch()
	if err := s.repo.Update(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to record api key usage", "key_id", keyID, "error", err)
	}
	s.cache.Set(keyID, secret, key)
	return key, nil
}

// CheckRateLimit enforces the per-key request rate.
func (s *AuthService) CheckRateLimit(keyID string, limit int) error {
	limiter := s.rateLimiters.GetOrCreate(keyID, limit)
	if !limiter.Allow() {
		return domain.ErrRateLimited.WithDetails("rate limit exceeded for " + keyID)
	}
	return nil
}

// CreateAPIKeyRequest contains parameters for key creation.
type CreateAPIKeyRequest struct {
	Name        string
	Role        string
	Description string
	RateLimit   int
	CreatedBy   string
}

// CreateAPIKey creates a key and returns it with its one-time plaintext secret.
func (s *AuthService) CreateAPIKey(ctx context.Context, req *CreateAPIKeyRequest) (*domain.APIKey, string, error) {
	if !domain.IsValidRole(req.Role) {
		return nil, "", domain.ErrInvalidArgument.WithDetails("unknown role " + req.Role)
	}
	key, secret, err := domain.NewAPIKey(req.Name, domain.Role(req.Role))
	if err != nil {
		return nil, "", err
	}
	key.Description = req.Description
	key.CreatedBy = req.CreatedBy
	if req.RateLimit > 0 {
		key.RateLimit = req.RateLimit
	}
	if err := key.Validate(); err != nil {
		return nil, "", err
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, "", storageErr(err)
	}
	s.logger.InfoContext(ctx, "api key created",
		"key_id", key.KeyID,
		"role", key.Role,
		"created_by", key.CreatedBy,
	)
	return key, secret, nil
}

// ListAPIKeys returns one window of keys and the total.
func (s *AuthService) ListAPIKeys(ctx context.Context, filter *APIKeyFilter) ([]*domain.APIKey, int, error) {
	if filter == nil {
		filter = &APIKeyFilter{}
	}
	if filter.Role != "" && !domain.IsValidRole(string(filter.Role)) {
		return nil, 0, domain.ErrInvalidArgument.WithDetails("unknown role " + string(filter.Role))
	}
	keys, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return keys, total, nil
}

// SetAPIKeyStatus enables or disables a key.
func (s *AuthService) SetAPIKeyStatus(ctx context.Context, keyID string, enabled bool) (*domain.APIKey, error) {
	key, err := s.repo.Get(ctx, keyID)
	if err != nil {
		return nil, storageErr(err)
	}
	status := domain.KeyStatusDisabled
	if enabled {
		status = domain.KeyStatusActive
	}
	if key.Status == status {
		return key, nil
	}
	key.Status = status
	key.Version++
	if err := s.repo.Update(ctx, key); err != nil {
		return nil, storageErr(err)
	}
	s.cache.Delete(keyID)
	s.logger.InfoContext(ctx, "api key status changed", "key_id", keyID, "status", status)
	return key, nil
}

// RotateAPIKey issues a new secret for a key. The old secret stops working immediately.
func (s *AuthService) RotateAPIKey(ctx context.Context, keyID string) (*domain.APIKey, string, error) {
	key, err := s.repo.Get(ctx, keyID)
	if err != nil {
		return nil, "", storageErr(err)
	}
	secret, err := key.RotateSecret()
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.Update(ctx, key); err != nil {
		return nil, "", storageErr(err)
	}
	s.cache.Delete(keyID)
	s.rateLimiters.Delete(keyID)
	s.logger.InfoContext(ctx, "api key rotated", "key_id", keyID)
	return key, secret, nil
}

// Bootstrap creates an admin key when no keys exist yet.
// It returns a nil key when the store is already populated.
func (s *AuthService) Bootstrap(ctx context.Context) (*domain.APIKey, string, error) {
	_, total, err := s.repo.List(ctx, &APIKeyFilter{Limit: 1})
	if err != nil {
		return nil, "", storageErr(err)
	}
	if total > 0 {
		return nil, "", nil
	}
	return s.CreateAPIKey(ctx, &CreateAPIKeyRequest{
		Name:        "bootstrap",
		Role:        string(domain.RoleAdmin),
		Description: "created on first start",
		CreatedBy:   "system",
	})
}

// APIKeyCache is an LRU of recently verified keys.
// Entries are keyed by key id and remember a digest of the secret they were
// verified with, so a wrong secret always falls through to the argon2 check.
type APIKeyCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	ttl      time.Duration
}

type cacheEntry struct {
	keyID     string
	digest    [sha256.Size]byte
	key       *domain.APIKey
	expiresAt time.Time
}

// NewAPIKeyCache creates a new cache.
func NewAPIKeyCache(capacity int, ttl time.Duration) *APIKeyCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &APIKeyCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns the cached key when present, fresh and verified with secret.
func (c *APIKeyCache) Get(keyID, secret string) *domain.APIKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[keyID]
	if !ok {
		return nil
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, keyID)
		return nil
	}
	digest := sha256.Sum256([]byte(secret))
	if subtle.ConstantTimeCompare(entry.digest[:], digest[:]) != 1 {
		return nil
	}
	c.order.MoveToFront(elem)
	return entry.key
}

// Set stores a verified key, evicting the least recently used entry when full.
func (c *APIKeyCache) Set(keyID, secret string, key *domain.APIKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[keyID]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.digest = sha256.Sum256([]byte(secret))
		entry.key = key
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		delete(c.items, oldest.Value.(*cacheEntry).keyID)
		c.order.Remove(oldest)
	}
	c.items[keyID] = c.order.PushFront(&cacheEntry{
		keyID:     keyID,
		digest:    sha256.Sum256([]byte(secret)),
		key:       key,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Delete removes a key from the cache.
func (c *APIKeyCache) Delete(keyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[keyID]; ok {
		c.order.Remove(elem)
		delete(c.items, keyID)
	}
}

// Len returns the number of cached entries.
func (c *APIKeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RateLimiterRegistry holds one token bucket per key, such as an API key
// id or a client IP.
type RateLimiterRegistry struct {
	limiters *cmap.Map[*rate.Limiter]
}

// NewRateLimiterRegistry creates an empty registry.
func NewRateLimiterRegistry() *RateLimiterRegistry {
	return &RateLimiterRegistry{limiters: cmap.New[*rate.Limiter]()}
}

// GetOrCreate returns the limiter for key, creating it with limit req/s and
// an equal burst on first use.
func (r *RateLimiterRegistry) GetOrCreate(key string, limit int) *rate.Limiter {
	if limit <= 0 {
		limit = domain.DefaultRateLimit
	}
	return r.limiters.GetOrCompute(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(limit), limit)
	})
}

// Delete drops the limiter for key.
func (r *RateLimiterRegistry) Delete(key string) {
	r.limiters.Delete(key)
}

// Len returns the number of tracked limiters.
func (r *RateLimiterRegistry) Len() int {
	return r.limiters.Len()
}
