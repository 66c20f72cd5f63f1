package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAPIKey(t *testing.T) {
	key, secret, err := NewAPIKey("ci", RoleIssuer)
	if err != nil {
		t.Fatalf("NewAPIKey() error = %v", err)
	}
	if !IsValidAPIKeyID(key.KeyID) {
		t.Errorf("KeyID %q is not valid", key.KeyID)
	}
	if !strings.HasPrefix(secret, APIKeySecretPrefix) {
		t.Errorf("secret should have prefix %q", APIKeySecretPrefix)
	}
	if strings.Contains(key.SecretHash, secret) {
		t.Error("SecretHash must not contain the plaintext secret")
	}
	if !strings.HasPrefix(key.SecretHash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("SecretHash format = %q", key.SecretHash)
	}
	if err := key.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestAPIKey_VerifySecret(t *testing.T) {
	key, secret, err := NewAPIKey("ci", RoleAdmin)
	if err != nil {
		t.Fatalf("NewAPIKey() error = %v", err)
	}

	if !key.VerifySecret(secret) {
		t.Error("VerifySecret should accept the issued secret")
	}
	if key.VerifySecret(secret + "x") {
		t.Error("VerifySecret should reject a different secret")
	}

	rotated, err := key.RotateSecret()
	if err != nil {
		t.Fatalf("RotateSecret() error = %v", err)
	}
	if key.VerifySecret(secret) {
		t.Error("old secret should stop working after rotation")
	}
	if !key.VerifySecret(rotated) {
		t.Error("rotated secret should verify")
	}
	if key.Version != 2 {
		t.Errorf("Version = %d, want 2", key.Version)
	}

	key.SecretHash = "garbage"
	if key.VerifySecret(rotated) {
		t.Error("malformed hash should never verify")
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermAPIKeyCreate, true},
		{RoleAdmin, PermSystemGC, true},
		{RoleIssuer, PermSessionCreate, true},
		{RoleIssuer, PermSessionRevokeAll, false},
		{RoleValidator, PermSessionList, true},
		{RoleValidator, PermSessionCreate, false},
		{RoleMetrics, PermSessionRead, false},
		{RoleMetrics, PermNone, true},
		{Role("bogus"), PermNone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestAPIKey_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*APIKey)
	}{
		{"empty name", func(k *APIKey) { k.Name = " " }},
		{"bad role", func(k *APIKey) { k.Role = "root" }},
		{"bad status", func(k *APIKey) { k.Status = "paused" }},
		{"rate limit", func(k *APIKey) { k.RateLimit = 0 }},
		{"bad id", func(k *APIKey) { k.KeyID = "key-nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _, _ := NewAPIKey("ci", RoleIssuer)
			tt.modify(key)
			if err := key.Validate(); !errors.Is(err, ErrAPIKeyValidation) {
				t.Errorf("Validate() error = %v, want ErrAPIKeyValidation", err)
			}
		})
	}
}
