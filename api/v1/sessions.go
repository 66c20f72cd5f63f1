package apiv1

// ListSessionsArgs filters ListSessions.
type ListSessionsArgs struct {
	UserID         string `json:"user_id,omitempty" mapstructure:"user_id,omitempty"`
	DeviceID       string `json:"device_id,omitempty" mapstructure:"device_id,omitempty"`
	CreatedBy      string `json:"created_by,omitempty" mapstructure:"created_by,omitempty"`
	IncludeExpired bool   `json:"include_expired,omitempty" mapstructure:"include_expired,omitempty"`
}

// SessionIDArgs addresses one session.
type SessionIDArgs struct {
	SessionID string `json:"session_id" mapstructure:"session_id"`
}

// CreateSessionArgs are the inputs of CreateSession.
type CreateSessionArgs struct {
	UserID     string            `json:"user_id" mapstructure:"user_id"`
	DeviceID   string            `json:"device_id,omitempty" mapstructure:"device_id,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty" mapstructure:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty" mapstructure:"user_agent,omitempty"`
	TTLSeconds int64             `json:"ttl_seconds,omitempty" mapstructure:"ttl_seconds,omitempty"`
	Data       map[string]string `json:"data,omitempty" mapstructure:"data,omitempty"`
}

// RenewSessionArgs are the inputs of RenewSession.
type RenewSessionArgs struct {
	SessionID  string `json:"session_id" mapstructure:"session_id"`
	TTLSeconds int64  `json:"ttl_seconds" mapstructure:"ttl_seconds"`
}

// UserArgs addresses every session of one user.
type UserArgs struct {
	UserID string `json:"user_id" mapstructure:"user_id"`
}

// ValidateTokenArgs are the inputs of ValidateToken.
type ValidateTokenArgs struct {
	Token    string `json:"token" mapstructure:"token"`
	Touch    bool   `json:"touch,omitempty" mapstructure:"touch,omitempty"`
	ClientIP string `json:"client_ip,omitempty" mapstructure:"client_ip,omitempty"`
}

// SessionView is a session as exposed by the API. Token hashes are not included.
type SessionView struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	DeviceID     string            `json:"device_id,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty" table:"wide"`
	UserAgent    string            `json:"user_agent,omitempty" table:"wide"`
	LastAccessIP string            `json:"last_access_ip,omitempty" table:"wide"`
	CreatedBy    string            `json:"created_by"`
	CreatedAt    int64             `json:"created_at" table:"time"`
	ExpiresAt    int64             `json:"expires_at" table:"time"`
	LastActive   int64             `json:"last_active" table:"time"`
	Data         map[string]string `json:"data,omitempty" table:"wide"`
	Version      uint64            `json:"version" table:"wide"`
}

// CreateSessionResult carries the new session and its one-time token.
type CreateSessionResult struct {
	Session SessionView `json:"session"`
	Token   string      `json:"token"`
}

// RevokeResult reports whether a session was removed.
type RevokeResult struct {
	SessionID string `json:"session_id"`
	Revoked   bool   `json:"revoked"`
}

// RevokeUserSessionsResult reports how many sessions were removed.
type RevokeUserSessionsResult struct {
	UserID  string `json:"user_id"`
	Revoked int    `json:"revoked"`
}

// ValidateTokenResult is the outcome of ValidateToken.
type ValidateTokenResult struct {
	Valid   bool         `json:"valid"`
	Session *SessionView `json:"session,omitempty"`
}

// GCResult reports expired sessions removed by CollectGarbage.
type GCResult struct {
	Removed int `json:"removed"`
}
