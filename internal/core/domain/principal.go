package domain

import (
	"strings"
	"unicode"
)

// RawPrincipalPrefix marks actor ids that come from an operator-declared
// principal rather than a verified API key.
const RawPrincipalPrefix = "raw:"

// RawPrincipal is an operator-declared identity used by the raw shell.
//
// It is never verified against any credential store: whoever runs the raw
// shell on the server host is trusted to say who they are. It is a distinct
// type from APIKey so that code paths accepting verified callers cannot be
// handed one by accident.
type RawPrincipal struct {
	username string
}

// NewRawPrincipal returns a principal for username.
// The name is trimmed; empty names and names with control characters are rejected.
func NewRawPrincipal(username string) (RawPrincipal, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return RawPrincipal{}, ErrPrincipalInvalid.WithDetails("username is required")
	}
	if len(username) > MaxUserIDLength {
		return RawPrincipal{}, ErrPrincipalInvalid.WithDetails("username exceeds 128 characters")
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return RawPrincipal{}, ErrPrincipalInvalid.WithDetails("username contains control characters")
		}
	}
	return RawPrincipal{username: username}, nil
}

// Username returns the declared user name.
func (p RawPrincipal) Username() string {
	return p.username
}

// ActorID is the identifier recorded in CreatedBy fields and audit logs.
func (p RawPrincipal) ActorID() string {
	return RawPrincipalPrefix + p.username
}

// IsZero reports whether p was constructed without NewRawPrincipal.
func (p RawPrincipal) IsZero() bool {
	return p.username == ""
}

func (p RawPrincipal) String() string {
	return p.ActorID()
}
