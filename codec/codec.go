package codec

import (
	"bytes"
	"crypto/hmac"
	"encoding/base64"
	"fmt"
)

const separator = ':'

// Codec composes a [Serializer] and a [Signer] into the token format.
//
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	serializer Serializer
	signer     Signer
}

// New builds a Codec. Nil arguments fall back to [JSONSerializer] and the sha1
// [HashSigner].
func New(serializer Serializer, signer Signer) *Codec {
	if serializer == nil {
		serializer = JSONSerializer{}
	}
	if signer == nil {
		signer = NewSHA1Signer()
	}
	return &Codec{serializer: serializer, signer: signer}
}

// Default returns a Codec with JSON serialization and the sha1 hash signer.
func Default() *Codec {
	return New(nil, nil)
}

func (c *Codec) Serializer() Serializer { return c.serializer }

func (c *Codec) Signer() Signer { return c.signer }

// Encode serializes, signs and base64-encodes data.
func (c *Codec) Encode(data Data) (string, error) {
	payload, err := c.serializer.Marshal(data)
	if err != nil {
		return "", err
	}

	sig, err := c.signer.Signature(payload)
	if err != nil {
		return "", err
	}

	raw := make([]byte, 0, len(sig)+1+len(payload))
	raw = append(raw, sig...)
	raw = append(raw, separator)
	raw = append(raw, payload...)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode verifies and deserializes a token produced by Encode. It never returns data
// whose signature did not verify.
func (c *Codec) Decode(token string) (Data, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	idx := bytes.IndexByte(raw, separator)
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing separator", ErrCorruptedSessionData)
	}
	expected, payload := raw[:idx], raw[idx+1:]

	sig, err := c.signer.Signature(payload)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal([]byte(sig), expected) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrCorruptedSessionData)
	}

	return c.serializer.Unmarshal(payload)
}

// DecodeBytes is Decode for values read from a byte-oriented store.
func (c *Codec) DecodeBytes(token []byte) (Data, error) {
	return c.Decode(string(token))
}
