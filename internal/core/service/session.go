package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abiibaabi/grr/internal/core/domain"
)

// SessionRepository is the storage interface for sessions.
//
// Implementations return domain.ErrSessionNotFound for missing ids and
// domain.ErrSessionVersionConflict when expectedVersion does not match.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	Update(ctx context.Context, session *domain.Session, expectedVersion uint64) error
	Delete(ctx context.Context, id string) error

	// List returns one window of matching sessions and the total match count.
	List(ctx context.Context, filter *SessionFilter) ([]*domain.Session, int, error)

	CountByUserID(ctx context.Context, userID string) (int, error)
	DeleteByUserID(ctx context.Context, userID string) (int, error)
	DeleteExpired(ctx context.Context) (int, error)
}

// SessionFilter selects sessions. Results are ordered by creation time,
// oldest first, so offsets stay stable while new sessions are added.
type SessionFilter struct {
	UserID         string
	DeviceID       string
	CreatedBy      string
	IncludeExpired bool
	Offset         int
	Limit          int // 0 means no limit
}

// Matches reports whether s passes the filter's predicates (not the window).
func (f *SessionFilter) Matches(s *domain.Session) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if f.DeviceID != "" && s.DeviceID != f.DeviceID {
		return false
	}
	if f.CreatedBy != "" && s.CreatedBy != f.CreatedBy {
		return false
	}
	if !f.IncludeExpired && s.IsExpired() {
		return false
	}
	return true
}

// SessionServiceConfig holds tunables for SessionService.
type SessionServiceConfig struct {
	DefaultTTL         time.Duration
	MaxTTL             time.Duration
	MaxSessionsPerUser int
}

// DefaultSessionServiceConfig returns default configuration.
func DefaultSessionServiceConfig() SessionServiceConfig {
	return SessionServiceConfig{
		DefaultTTL:         24 * time.Hour,
		MaxTTL:             30 * 24 * time.Hour,
		MaxSessionsPerUser: domain.MaxSessionsPerUser,
	}
}

// SessionService handles session lifecycle operations.
type SessionService struct {
	repo   SessionRepository
	cfg    SessionServiceConfig
	logger *slog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(repo SessionRepository, cfg SessionServiceConfig, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultSessionServiceConfig()
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = def.DefaultTTL
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = def.MaxTTL
	}
	if cfg.MaxSessionsPerUser <= 0 {
		cfg.MaxSessionsPerUser = def.MaxSessionsPerUser
	}
	return &SessionService{repo: repo, cfg: cfg, logger: logger}
}

// CreateSessionRequest contains parameters for session creation.
type CreateSessionRequest struct {
	UserID    string
	DeviceID  string
	IPAddress string
	UserAgent string
	Data      map[string]string
	TTL       time.Duration // 0 uses the configured default
	CreatedBy string        // actor id of the caller
}

// CreateSessionResponse carries the new session and its plaintext token.
type CreateSessionResponse struct {
	Session *domain.Session
	Token   string
}

// Create creates a new session and issues its token.
func (s *SessionService) Create(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	if req.UserID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("user_id is required")
	}
	ttl, err := s.ttl(req.TTL)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByUserID(ctx, req.UserID)
	if err != nil {
		return nil, storageErr(err)
	}
	if count >= s.cfg.MaxSessionsPerUser {
		return nil, domain.ErrSessionQuotaExceeded.WithDetails(
			fmt.Sprintf("user has %d sessions (max %d)", count, s.cfg.MaxSessionsPerUser),
		)
	}

	plain, hash, err := domain.GenerateToken()
	if err != nil {
		return nil, err
	}

	session, err := domain.NewSession(req.UserID)
	if err != nil {
		return nil, err
	}
	session.TokenHash = hash
	session.DeviceID = req.DeviceID
	session.IPAddress = req.IPAddress
	session.LastAccessIP = req.IPAddress
	session.UserAgent = req.UserAgent
	session.CreatedBy = req.CreatedBy
	for k, v := range req.Data {
		session.Data[k] = v
	}
	session.SetExpiration(ttl)

	if err := session.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, storageErr(err)
	}

	s.logger.InfoContext(ctx, "session created",
		"session_id", session.ID,
		"user_id", session.UserID,
		"created_by", session.CreatedBy,
	)
	return &CreateSessionResponse{Session: session, Token: plain}, nil
}

// Get retrieves a live session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	normalized := domain.NormalizeSessionID(id)
	if normalized == "" {
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("malformed session_id %q", id))
	}
	session, err := s.repo.Get(ctx, normalized)
	if err != nil {
		return nil, storageErr(err)
	}
	if session.IsExpired() {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// List returns one window of sessions matching filter, plus the total.
func (s *SessionService) List(ctx context.Context, filter *SessionFilter) ([]*domain.Session, int, error) {
	if filter == nil {
		filter = &SessionFilter{}
	}
	if filter.Offset < 0 || filter.Limit < 0 {
		return nil, 0, domain.ErrInvalidArgument.WithDetails("offset and limit must not be negative")
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return items, total, nil
}

// Renew resets the expiration of a live session to now+ttl. A zero ttl
// uses the configured default.
func (s *SessionService) Renew(ctx context.Context, id string, ttl time.Duration) (*domain.Session, error) {
	ttl, err := s.ttl(ttl)
	if err != nil {
		return nil, err
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	expected := session.Version
	session.SetExpiration(ttl)
	session.LastActive = time.Now().UnixMilli()
	session.Version++
	if err := s.repo.Update(ctx, session, expected); err != nil {
		return nil, storageErr(err)
	}
	return session, nil
}

// Revoke deletes a session. Revoking a missing session is not an error;
// the boolean reports whether anything was removed.
func (s *SessionService) Revoke(ctx context.Context, id string) (bool, error) {
	normalized := domain.NormalizeSessionID(id)
	if normalized == "" {
		return false, domain.ErrInvalidArgument.WithDetails("malformed session_id")
	}
	err := s.repo.Delete(ctx, normalized)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "session revoked", "session_id", normalized)
		return true, nil
	case domain.IsDomainError(err, domain.ErrSessionNotFound.Code):
		return false, nil
	default:
		return false, storageErr(err)
	}
}

// RevokeByUser deletes every session of a user and returns how many were removed.
func (s *SessionService) RevokeByUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrMissingArgument.WithDetails("user_id is required")
	}
	n, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}
	s.logger.InfoContext(ctx, "user sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// GC removes expired sessions.
func (s *SessionService) GC(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, storageErr(err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count(ctx context.Context) (int, error) {
	_, total, err := s.List(ctx, &SessionFilter{Limit: 1})
	return total, err
}

func (s *SessionService) ttl(ttl time.Duration) (time.Duration, error) {
	if ttl == 0 {
		return s.cfg.DefaultTTL, nil
	}
	if ttl < 0 {
		return 0, domain.ErrInvalidArgument.WithDetails("ttl must be positive")
	}
	if ttl > s.cfg.MaxTTL {
		return 0, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("ttl %s exceeds maximum %s", ttl, s.cfg.MaxTTL),
		)
	}
	return ttl, nil
}

// storageErr passes domain errors through and wraps anything else.
func storageErr(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
