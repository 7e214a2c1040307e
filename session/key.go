package session

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// KeyLength is the length of keys produced by NewKey.
	KeyLength = 32

	minKeyLength = 4
	maxKeyLength = 128
)

// NewKey returns a fresh random session key: 32 lowercase hex characters.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidKey reports whether key could have been issued as a session key. Cookie values
// that fail this check are treated as absent sessions.
func ValidKey(key string) bool {
	if len(key) < minKeyLength || len(key) > maxKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Truncate shortens a key for log and audit output.
func Truncate(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "…"
}
