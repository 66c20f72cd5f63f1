// Package service implements the business logic behind the admin API.
//
// SessionService and TokenService manage user sessions; AuthService owns API
// keys, secret verification and per-key rate limiting. Services depend on
// repository interfaces and return *domain.DomainError values.
package service
