package session

import (
	"errors"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/shard"
)

var (
	// ErrStoreUnavailable wraps transport failures (connection, timeout, closed client).
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrNotFound is returned by Transport.Get when the key is absent or expired.
	ErrNotFound = errors.New("session not found")
	// ErrKeyExhausted is returned when no free session key could be generated.
	ErrKeyExhausted = errors.New("session key generation exhausted")
	// ErrInvalidServer is returned when a server definition cannot be used.
	ErrInvalidServer = errors.New("invalid session server")

	// ErrNoAvailableBackend is re-exported from package shard.
	ErrNoAvailableBackend = shard.ErrNoAvailableBackend
	// ErrCorruptedSessionData is re-exported from package codec.
	ErrCorruptedSessionData = codec.ErrCorruptedSessionData
)
