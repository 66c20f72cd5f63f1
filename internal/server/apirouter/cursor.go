package apirouter

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/abiibaabi/grr/internal/core/domain"
)

const cursorPrefix = "o:"

// encodeCursor hides the offset behind an opaque token.
func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// decodeCursor returns 0 for the empty cursor.
func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return 0, domain.ErrInvalidCursor
	}
	offset, err := strconv.Atoi(string(raw[len(cursorPrefix):]))
	if err != nil || offset < 0 {
		return 0, domain.ErrInvalidCursor
	}
	return offset, nil
}
