package apiv1

// ListAPIKeysArgs filters ListAPIKeys.
type ListAPIKeysArgs struct {
	Role string `json:"role,omitempty" mapstructure:"role,omitempty"`
}

// CreateAPIKeyArgs are the inputs of CreateAPIKey.
type CreateAPIKeyArgs struct {
	Name        string `json:"name" mapstructure:"name"`
	Role        string `json:"role" mapstructure:"role"`
	Description string `json:"description,omitempty" mapstructure:"description,omitempty"`
	RateLimit   int    `json:"rate_limit,omitempty" mapstructure:"rate_limit,omitempty"`
}

// SetAPIKeyStatusArgs are the inputs of SetAPIKeyStatus.
type SetAPIKeyStatusArgs struct {
	KeyID   string `json:"key_id" mapstructure:"key_id"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

// KeyIDArgs addresses one API key.
type KeyIDArgs struct {
	KeyID string `json:"key_id" mapstructure:"key_id"`
}

// APIKeyView is an API key without any secret material.
type APIKeyView struct {
	KeyID       string `json:"key_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	RateLimit   int    `json:"rate_limit" table:"wide"`
	Description string `json:"description,omitempty" table:"wide"`
	CreatedAt   int64  `json:"created_at" table:"time"`
	CreatedBy   string `json:"created_by"`
	LastUsed    int64  `json:"last_used,omitempty" table:"time"`
}

// APIKeySecretResult carries a key and its one-time plaintext secret.
type APIKeySecretResult struct {
	Key    APIKeyView `json:"key"`
	Secret string     `json:"secret"`
}

// StatusSummary is returned by GetStatusSummary.
type StatusSummary struct {
	Version       string `json:"version"`
	Commit        string `json:"commit,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Sessions      int    `json:"sessions"`
	APIKeys       int    `json:"api_keys"`
	Caller        string `json:"caller"`
	RawAccess     bool   `json:"raw_access"`
}
