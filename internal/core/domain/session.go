package domain

import (
	"strings"
	"time"
)

// Session constraints.
const (
	MaxUserIDLength    = 128
	MaxIPAddressLength = 45 // IPv6
	MaxUserAgentLength = 512
	MaxDeviceIDLength  = 128
	MaxDataKeyLength   = 64
	MaxDataValueLength = 1024
	MaxDataTotalSize   = 4096
	MaxSessionsPerUser = 50

	// SessionIDPrefix is the prefix for session IDs.
	SessionIDPrefix = "ses-"
)

// Session is a user session managed through the admin API.
type Session struct {
	// ID has the form ses-{ulid_lowercase}.
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// TokenHash is HashToken of the plaintext token handed out at creation.
	TokenHash string `json:"token_hash"`

	IPAddress    string `json:"ip_address,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
	LastAccessIP string `json:"last_access_ip,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`

	// CreatedBy is the actor id: an API key id, or raw:<username> for the raw shell.
	CreatedBy string `json:"created_by"`

	// Timestamps are Unix milliseconds. ExpiresAt of 0 never expires.
	CreatedAt  int64 `json:"created_at"`
	ExpiresAt  int64 `json:"expires_at"`
	LastActive int64 `json:"last_active"`

	Data map[string]string `json:"data,omitempty"`

	// Version is the optimistic lock version number.
	Version uint64 `json:"version"`
}

// NewSession creates a new Session with a generated ID.
func NewSession(userID string) (*Session, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}
	now := currentTimeMillis()
	return &Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		LastActive: now,
		Data:       make(map[string]string),
		Version:    1,
	}, nil
}

// GenerateSessionID generates a new session ID.
func GenerateSessionID() (string, error) {
	return newID(SessionIDPrefix)
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.ExpiresAt != 0 && currentTimeMillis() > s.ExpiresAt
}

// TTLDuration returns the remaining lifetime, or 0 if expired or unbounded.
func (s *Session) TTLDuration() time.Duration {
	if s.ExpiresAt == 0 {
		return 0
	}
	remaining := s.ExpiresAt - currentTimeMillis()
	if remaining < 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// Touch records an access.
func (s *Session) Touch(ip string) {
	s.LastActive = currentTimeMillis()
	if ip != "" {
		s.LastAccessIP = ip
	}
}

// SetExpiration sets the expiration time from a TTL duration.
func (s *Session) SetExpiration(ttl time.Duration) {
	s.ExpiresAt = timeNow().Add(ttl).UnixMilli()
}

// Validate checks the session fields against constraints.
func (s *Session) Validate() error {
	var violations []string

	if s.UserID == "" {
		violations = append(violations, "user_id is required")
	}
	if len(s.UserID) > MaxUserIDLength {
		violations = append(violations, "user_id exceeds 128 characters")
	}
	if len(s.IPAddress) > MaxIPAddressLength {
		violations = append(violations, "ip_address exceeds 45 characters")
	}
	if len(s.UserAgent) > MaxUserAgentLength {
		violations = append(violations, "user_agent exceeds 512 characters")
	}
	if len(s.DeviceID) > MaxDeviceIDLength {
		violations = append(violations, "device_id exceeds 128 characters")
	}
	if msg := s.validateData(); msg != "" {
		violations = append(violations, msg)
	}

	if len(violations) > 0 {
		return ErrSessionValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

func (s *Session) validateData() string {
	var total int
	for k, v := range s.Data {
		if len(k) > MaxDataKeyLength {
			return "data key exceeds 64 characters"
		}
		if len(v) > MaxDataValueLength {
			return "data value exceeds 1KB"
		}
		total += len(k) + len(v)
	}
	if total > MaxDataTotalSize {
		return "data total size exceeds 4KB"
	}
	return ""
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := *s
	if s.Data != nil {
		clone.Data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			clone.Data[k] = v
		}
	}
	return &clone
}

// IsValidSessionID checks if a string is a valid session ID.
func IsValidSessionID(id string) bool {
	return isValidID(id, SessionIDPrefix)
}

// NormalizeSessionID lowercases a session ID, returning "" if it is invalid.
func NormalizeSessionID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if !IsValidSessionID(id) {
		return ""
	}
	return id
}
