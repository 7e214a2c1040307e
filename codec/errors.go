package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrSerialization is returned when session data cannot be converted to or from bytes.
	ErrSerialization = errors.New("session serialization failed")
	// ErrCorruptedSessionData is returned when a token has no separator or its signature
	// does not match the payload.
	ErrCorruptedSessionData = errors.New("session data is corrupted")
	// ErrDecode is returned when a token is not valid base64. It also matches
	// ErrCorruptedSessionData.
	ErrDecode = fmt.Errorf("%w: malformed token", ErrCorruptedSessionData)
	// ErrInvalidSecret is returned when a keyed signer is built without a secret.
	ErrInvalidSecret = errors.New("signer secret must not be empty")
	// ErrUnknownSigner is returned by SignerByName for unsupported algorithm names.
	ErrUnknownSigner = errors.New("unknown signer")
	// ErrUnknownSerializer is returned by SerializerByName for unsupported format names.
	ErrUnknownSerializer = errors.New("unknown serializer")
)
