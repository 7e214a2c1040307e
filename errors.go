package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoStorage is returned when neither a server, a storage nor shards are configured.
	ErrNoStorage = errors.New("session storage required")
	// ErrSecretEnvUnset is returned by LoadConfigFile when secret_key_env names an unset variable.
	ErrSecretEnvUnset = errors.New("secret key environment variable is not set")

	// ErrCorruptedSessionData is returned by Manager.Load when stored data fails verification.
	ErrCorruptedSessionData = codec.ErrCorruptedSessionData
	// ErrSerialization is returned when session data cannot be (de)serialized.
	ErrSerialization = codec.ErrSerialization
	// ErrStoreUnavailable is returned when a write hits a transport failure.
	ErrStoreUnavailable = session.ErrStoreUnavailable
	// ErrNoAvailableBackend is returned when no shard can serve a key.
	ErrNoAvailableBackend = session.ErrNoAvailableBackend
)
