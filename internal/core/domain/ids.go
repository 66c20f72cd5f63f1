package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns prefix followed by a lowercase ULID.
// IDs generated within the same millisecond still sort in creation order.
func newID(prefix string) (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(timeNow()), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return prefix + strings.ToLower(id.String()), nil
}

// isValidID checks the prefix + 26 character ULID shape, case-insensitively.
func isValidID(id, prefix string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, prefix) || len(id) != len(prefix)+ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(prefix):]))
	return err == nil
}

// NewRequestID generates an id for tracing a single API call.
func NewRequestID() string {
	id, err := newID(RequestIDPrefix)
	if err != nil {
		return RequestIDPrefix + "unknown"
	}
	return id
}

// RequestIDPrefix is the prefix of ids produced by NewRequestID.
const RequestIDPrefix = "req-"

// currentTimeMillis returns the current Unix timestamp in milliseconds.
var currentTimeMillis = func() int64 {
	return timeNow().UnixMilli()
}

// timeNow is a hook for testing.
var timeNow = time.Now
