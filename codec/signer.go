package codec

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Signer computes the hex digest embedded in every token.
//
// The set of implementations is closed: [HashSigner], [HMACSigner] and [LegacySigner].
type Signer interface {
	Signature(payload []byte) (string, error)
	Name() string
}

const (
	SignerSHA1     = "sha1"
	SignerSHA256   = "sha256"
	SignerHS256    = "hs256"
	SignerHS384    = "hs384"
	SignerHS512    = "hs512"
	SignerDjango14 = "django14"
)

// SignerOptions carries the out-of-band material keyed signers need.
type SignerOptions struct {
	Secret []byte
	// LegacySessionClass is the session class name mixed into the django14 key salt.
	LegacySessionClass string
}

// SignerByName builds the signer registered under name. Keyed algorithms require
// opts.Secret.
func SignerByName(name string, opts SignerOptions) (Signer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SignerSHA1:
		return NewSHA1Signer(), nil
	case SignerSHA256:
		return NewSHA256Signer(), nil
	case SignerHS256:
		return NewHMACSigner(jwt.SigningMethodHS256, opts.Secret)
	case SignerHS384:
		return NewHMACSigner(jwt.SigningMethodHS384, opts.Secret)
	case SignerHS512:
		return NewHMACSigner(jwt.SigningMethodHS512, opts.Secret)
	case SignerDjango14:
		return NewLegacySigner(opts.Secret, opts.LegacySessionClass)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSigner, name)
	}
}

// HashSigner is an unkeyed digest. It detects accidental corruption only: anyone able
// to write to the store can recompute it.
type HashSigner struct {
	name string
	new  func() hash.Hash
}

// NewSHA1Signer returns the default signer. Its tokens match the long-standing
// sha1 session format, so existing stores keep decoding.
func NewSHA1Signer() HashSigner {
	return HashSigner{name: SignerSHA1, new: sha1.New}
}

func NewSHA256Signer() HashSigner {
	return HashSigner{name: SignerSHA256, new: sha256.New}
}

func (s HashSigner) Name() string { return s.name }

func (s HashSigner) Signature(payload []byte) (string, error) {
	newHash := s.new
	if newHash == nil {
		newHash = sha1.New
	}
	h := newHash()
	_, _ = h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HMACSigner is a keyed signer backed by the JWT HMAC signing methods.
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewHMACSigner copies secret; an empty secret is rejected.
func NewHMACSigner(method *jwt.SigningMethodHMAC, secret []byte) (*HMACSigner, error) {
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	if len(secret) == 0 {
		return nil, ErrInvalidSecret
	}
	return &HMACSigner{
		method: method,
		secret: append([]byte(nil), secret...),
	}, nil
}

func (s *HMACSigner) Name() string { return strings.ToLower(s.method.Alg()) }

func (s *HMACSigner) Signature(payload []byte) (string, error) {
	sig, err := s.method.Sign(string(payload), s.secret)
	if err != nil {
		return "", fmt.Errorf("%s sign: %w", s.method.Alg(), err)
	}
	return hex.EncodeToString(sig), nil
}

// String keeps the secret out of fmt output.
func (s *HMACSigner) String() string { return "HMACSigner(" + s.Name() + ")" }

const legacyKeySalt = "django.contrib.sessions"

// LegacySigner reproduces the Django 1.4 session signature so sessions written by
// such deployments can be shared. The HMAC key is derived as
// sha1(salt + sessionClass + secret).
type LegacySigner struct {
	key []byte
}

func NewLegacySigner(secret []byte, sessionClass string) (*LegacySigner, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidSecret
	}
	h := sha1.New()
	_, _ = h.Write([]byte(legacyKeySalt + sessionClass))
	_, _ = h.Write(secret)
	return &LegacySigner{key: h.Sum(nil)}, nil
}

func (s *LegacySigner) Name() string { return SignerDjango14 }

func (s *LegacySigner) Signature(payload []byte) (string, error) {
	mac := hmac.New(sha1.New, s.key)
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

func (s *LegacySigner) String() string { return "LegacySigner(" + SignerDjango14 + ")" }
