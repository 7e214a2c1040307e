package shard

import (
	"errors"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNoAvailableBackend is returned when a pool is empty or has zero total weight.
	ErrNoAvailableBackend = errors.New("no available backend")
	// ErrInvalidKey is returned for keys shorter than FingerprintLength characters.
	ErrInvalidKey = errors.New("shard key too short")
)

const (
	// FingerprintLength is the number of leading key characters that decide the shard.
	FingerprintLength = 4
	// DefaultCacheSize bounds the assignment cache when no size is configured.
	DefaultCacheSize = 1024
)

// Entry is an immutable (weight, backend) pair.
type Entry[T any] struct {
	Weight  int
	Backend T
}

// Selector picks the backend owning a key, proportionally to weight.
//
// A Selector is safe for concurrent use.
type Selector[T any] struct {
	entries []Entry[T]
	total   uint64
	cache   *lru.Cache[string, int]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Selector.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCacheSize sets the LRU capacity. A size <= 0 disables memoization.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// New validates the pool and builds a Selector. The entries slice is copied.
func New[T any](entries []Entry[T], opts ...Option) (*Selector[T], error) {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	total, err := totalWeight(entries)
	if err != nil {
		return nil, err
	}

	s := &Selector[T]{
		entries: append([]Entry[T](nil), entries...),
		total:   total,
	}

	if o.cacheSize > 0 {
		cache, err := lru.New[string, int](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("shard cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Select returns the backend owning key.
func (s *Selector[T]) Select(key string) (T, error) {
	var zero T

	prefix, ok := fingerprintPrefix(key)
	if !ok {
		return zero, fmt.Errorf("%w: %d characters", ErrInvalidKey, len([]rune(key)))
	}

	if s.cache != nil {
		if idx, ok := s.cache.Get(prefix); ok {
			s.hits.Add(1)
			return s.entries[idx].Backend, nil
		}
	}
	s.misses.Add(1)

	idx := locate(s.entries, s.total, Fingerprint(prefix))
	if idx < 0 {
		return zero, ErrNoAvailableBackend
	}
	if s.cache != nil {
		s.cache.Add(prefix, idx)
	}

	return s.entries[idx].Backend, nil
}

// Len returns the number of pool entries.
func (s *Selector[T]) Len() int { return len(s.entries) }

// Entries returns a copy of the pool in selection order.
func (s *Selector[T]) Entries() []Entry[T] {
	return append([]Entry[T](nil), s.entries...)
}

// Stats reports cache hits and misses since construction.
func (s *Selector[T]) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

// Purge empties the assignment cache.
func (s *Selector[T]) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Pick is the uncached selection for one-off lookups.
func Pick[T any](entries []Entry[T], key string) (T, error) {
	var zero T

	total, err := totalWeight(entries)
	if err != nil {
		return zero, err
	}
	prefix, ok := fingerprintPrefix(key)
	if !ok {
		return zero, fmt.Errorf("%w: %d characters", ErrInvalidKey, len([]rune(key)))
	}

	idx := locate(entries, total, Fingerprint(prefix))
	if idx < 0 {
		return zero, ErrNoAvailableBackend
	}
	return entries[idx].Backend, nil
}

// Fingerprint folds the first FingerprintLength characters of key into a number,
// iterating from the last of them to the first so character 0 is least significant.
// Shorter keys fold whatever characters they have.
func Fingerprint(key string) uint64 {
	runes := []rune(key)
	if len(runes) > FingerprintLength {
		runes = runes[:FingerprintLength]
	}

	var pos uint64
	for i := len(runes) - 1; i >= 0; i-- {
		pos = pos*256 + uint64(runes[i])
	}
	return pos
}

func fingerprintPrefix(key string) (string, bool) {
	n := 0
	for i := range key {
		if n == FingerprintLength {
			return key[:i], true
		}
		n++
	}
	if n < FingerprintLength {
		return "", false
	}
	return key, true
}

func totalWeight[T any](entries []Entry[T]) (uint64, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: empty pool", ErrNoAvailableBackend)
	}

	var total uint64
	for i, e := range entries {
		if e.Weight < 0 {
			return 0, fmt.Errorf("%w: entry %d has negative weight %d", ErrNoAvailableBackend, i, e.Weight)
		}
		total += uint64(e.Weight)
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: total weight is zero", ErrNoAvailableBackend)
	}
	return total, nil
}

func locate[T any](entries []Entry[T], total, fingerprint uint64) int {
	target := fingerprint % total

	var running uint64
	for i, e := range entries {
		w := uint64(e.Weight)
		if target >= running && target < running+w {
			return i
		}
		running += w
	}
	return -1
}
