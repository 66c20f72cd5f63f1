package service

import (
	"context"

	"github.com/abiibaabi/grr/internal/core/domain"
)

// TokenService validates session tokens.
type TokenService struct {
	repo SessionRepository
}

// NewTokenService creates a new TokenService.
func NewTokenService(repo SessionRepository) *TokenService {
	return &TokenService{repo: repo}
}

// ValidateResult is the outcome of a token check.
type ValidateResult struct {
	Valid   bool
	Session *domain.Session
}

// Validate resolves a plaintext token to its live session.
// With touch set, the session's last activity is recorded; a concurrent
// update winning the race is not treated as a failure.
func (s *TokenService) Validate(ctx context.Context, token string, touch bool, clientIP string) (*ValidateResult, error) {
	if !domain.ValidateTokenFormat(token) {
		return nil, domain.ErrTokenMalformed
	}

	session, err := s.repo.GetByTokenHash(ctx, domain.HashToken(token))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrSessionNotFound.Code) {
			return &ValidateResult{Valid: false}, nil
		}
		return nil, storageErr(err)
	}
	if session.IsExpired() {
		return &ValidateResult{Valid: false, Session: session}, nil
	}

	if touch {
		expected := session.Version
		session.Touch(clientIP)
		session.Version++
		err := s.repo.Update(ctx, session, expected)
		if err != nil && !domain.IsDomainError(err, domain.ErrSessionVersionConflict.Code) {
			return nil, storageErr(err)
		}
	}
	return &ValidateResult{Valid: true, Session: session}, nil
}
