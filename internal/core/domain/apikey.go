package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// APIKeyIDPrefix is the prefix for API key ids (public).
	APIKeyIDPrefix = "key-"

	// APIKeySecretPrefix is the prefix for API key secrets.
	APIKeySecretPrefix = "grks_"
)

// Argon2id parameters for secret hashing.
const (
	Argon2Memory      uint32 = 16384 // KiB
	Argon2Time        uint32 = 2
	Argon2Parallelism uint8  = 2
	Argon2KeyLen      uint32 = 32
	Argon2SaltLen            = 16
)

// Role defines the permission level of a caller.
type Role string

const (
	RoleMetrics   Role = "metrics"
	RoleValidator Role = "validator"
	RoleIssuer    Role = "issuer"
	RoleAdmin     Role = "admin"
)

// ValidRoles returns all valid roles.
func ValidRoles() []Role {
	return []Role{RoleMetrics, RoleValidator, RoleIssuer, RoleAdmin}
}

// IsValidRole checks if a string is a valid role.
func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleMetrics, RoleValidator, RoleIssuer, RoleAdmin:
		return true
	}
	return false
}

// KeyStatus is the status of an API key.
type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "active"
	KeyStatusDisabled KeyStatus = "disabled"
)

// Permission names an action a role may perform.
type Permission string

const (
	PermNone Permission = ""

	PermSessionCreate    Permission = "session.create"
	PermSessionRead      Permission = "session.read"
	PermSessionRenew     Permission = "session.renew"
	PermSessionRevoke    Permission = "session.revoke"
	PermSessionRevokeAll Permission = "session.revoke_all"
	PermSessionList      Permission = "session.list"

	PermTokenValidate Permission = "token.validate"

	PermAPIKeyCreate  Permission = "apikey.create"
	PermAPIKeyList    Permission = "apikey.list"
	PermAPIKeyDisable Permission = "apikey.disable"
	PermAPIKeyRotate  Permission = "apikey.rotate"

	PermSystemStatus Permission = "system.status"
	PermSystemGC     Permission = "system.gc"

	PermMetricsRead Permission = "metrics.read"
)

var rolePermissions = map[Role][]Permission{
	RoleMetrics: {
		PermMetricsRead,
	},
	RoleValidator: {
		PermTokenValidate,
		PermSessionRead,
		PermSessionList,
		PermMetricsRead,
	},
	RoleIssuer: {
		PermTokenValidate,
		PermSessionCreate,
		PermSessionRead,
		PermSessionRenew,
		PermSessionRevoke,
		PermSessionList,
		PermMetricsRead,
	},
	RoleAdmin: {
		PermSessionCreate,
		PermSessionRead,
		PermSessionRenew,
		PermSessionRevoke,
		PermSessionRevokeAll,
		PermSessionList,
		PermTokenValidate,
		PermAPIKeyCreate,
		PermAPIKeyList,
		PermAPIKeyDisable,
		PermAPIKeyRotate,
		PermSystemStatus,
		PermSystemGC,
		PermMetricsRead,
	},
}

// HasPermission checks if a role has a specific permission.
// PermNone is granted to every valid role.
func HasPermission(role Role, perm Permission) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	if perm == PermNone {
		return true
	}
	for _, p := range permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// APIKey is a verified credential for remote callers.
type APIKey struct {
	// KeyID has the form key-{ulid_lowercase}.
	KeyID string `json:"key_id"`
	Name  string `json:"name"`

	// SecretHash is the argon2id hash of the secret. Never serialized to clients.
	SecretHash string `json:"-"`

	Role        Role      `json:"role"`
	RateLimit   int       `json:"rate_limit"` // requests per second
	Status      KeyStatus `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   int64     `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	LastUsed    int64     `json:"last_used,omitempty"`
	Version     uint64    `json:"version"`
}

// API key constraints.
const (
	MaxDescriptionLength = 256
	MaxKeyNameLength     = 64
	MinRateLimit         = 1
	MaxRateLimit         = 1000000
	DefaultRateLimit     = 1000
	SecretLength         = 32
)

// NewAPIKey creates a key with a generated id and secret.
// The plaintext secret is returned once and never stored.
func NewAPIKey(name string, role Role) (*APIKey, string, error) {
	keyID, err := newID(APIKeyIDPrefix)
	if err != nil {
		return nil, "", err
	}
	secret, hash, err := newSecret()
	if err != nil {
		return nil, "", err
	}
	return &APIKey{
		KeyID:      keyID,
		Name:       name,
		SecretHash: hash,
		Role:       role,
		Status:     KeyStatusActive,
		RateLimit:  DefaultRateLimit,
		CreatedAt:  currentTimeMillis(),
		Version:    1,
	}, secret, nil
}

func newSecret() (plain, hash string, err error) {
	buf := make([]byte, SecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", ErrInternalServer.WithCause(err)
	}
	plain = APIKeySecretPrefix + base64.RawURLEncoding.EncodeToString(buf)
	hash, err = hashSecret(plain)
	if err != nil {
		return "", "", ErrInternalServer.WithCause(err)
	}
	return plain, hash, nil
}

// hashSecret returns $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>.
func hashSecret(secret string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(secret), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifySecret checks secret against the stored hash in constant time.
func (k *APIKey) VerifySecret(secret string) bool {
	parts := strings.Split(k.SecretHash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(secret), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// RotateSecret replaces the secret and returns the new plaintext.
func (k *APIKey) RotateSecret() (string, error) {
	plain, hash, err := newSecret()
	if err != nil {
		return "", err
	}
	k.SecretHash = hash
	k.Version++
	return plain, nil
}

// IsActive returns true if the key may authenticate.
func (k *APIKey) IsActive() bool {
	return k.Status == KeyStatusActive
}

// Touch updates the LastUsed timestamp.
func (k *APIKey) Touch() {
	k.LastUsed = currentTimeMillis()
}

// ActorID is the identifier recorded in CreatedBy fields and audit logs.
func (k *APIKey) ActorID() string {
	return k.KeyID
}

// Validate validates the API key fields.
func (k *APIKey) Validate() error {
	var violations []string

	if !IsValidAPIKeyID(k.KeyID) {
		violations = append(violations, "key_id format invalid")
	}
	if k.SecretHash == "" {
		violations = append(violations, "secret_hash is required")
	}
	if strings.TrimSpace(k.Name) == "" {
		violations = append(violations, "name is required")
	}
	if len(k.Name) > MaxKeyNameLength {
		violations = append(violations, "name exceeds 64 characters")
	}
	if !IsValidRole(string(k.Role)) {
		violations = append(violations, "invalid role")
	}
	if k.Status != KeyStatusActive && k.Status != KeyStatusDisabled {
		violations = append(violations, "invalid status")
	}
	if k.RateLimit < MinRateLimit || k.RateLimit > MaxRateLimit {
		violations = append(violations, "rate_limit must be between 1 and 1,000,000")
	}
	if len(k.Description) > MaxDescriptionLength {
		violations = append(violations, "description exceeds 256 characters")
	}

	if len(violations) > 0 {
		return ErrAPIKeyValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone creates a copy of the API key.
func (k *APIKey) Clone() *APIKey {
	clone := *k
	return &clone
}

// IsValidAPIKeyID checks if a string is a valid API key id.
func IsValidAPIKeyID(id string) bool {
	return isValidID(id, APIKeyIDPrefix)
}
