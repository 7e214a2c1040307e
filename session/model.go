package session

import (
	"iter"
	"maps"
	"slices"

	"github.com/MrEthical07/goSession/codec"
)

// Data is the mapping persisted for one session.
type Data = codec.Data

// ExpiryKey is the reserved data key holding a per-session expiry override.
const ExpiryKey = "_session_expiry"

// Session wraps session data and records whether it was read or changed.
//
// Session is not safe for concurrent use; one request owns one Session.
type Session struct {
	key      string
	data     Data
	modified bool
	accessed bool
}

// New returns an empty session with no key.
func New() *Session {
	return &Session{data: Data{}}
}

// Load wraps data read from storage under key. A nil data map is treated as empty.
func Load(key string, data Data) *Session {
	if data == nil {
		data = Data{}
	}
	return &Session{key: key, data: data}
}

// Key returns the storage key, or "" for a session that has never been persisted.
func (s *Session) Key() string { return s.key }

// Data returns the underlying mapping without touching the tracking flags.
func (s *Session) Data() Data { return s.data }

// IsEmpty reports whether the session holds no data, without touching the flags.
func (s *Session) IsEmpty() bool { return len(s.data) == 0 }

// Modified reports whether the data was changed.
func (s *Session) Modified() bool { return s.modified }

// Accessed reports whether the data was read or changed.
func (s *Session) Accessed() bool { return s.accessed }

// ResetFlags clears both tracking flags.
func (s *Session) ResetFlags() {
	s.modified = false
	s.accessed = false
}

// Get returns the value for k, or nil.
func (s *Session) Get(k string) any {
	s.accessed = true
	return s.data[k]
}

// Lookup returns the value for k and whether it was present.
func (s *Session) Lookup(k string) (any, bool) {
	s.accessed = true
	v, ok := s.data[k]
	return v, ok
}

// Has reports whether k is present.
func (s *Session) Has(k string) bool {
	s.accessed = true
	_, ok := s.data[k]
	return ok
}

// Set stores v under k.
func (s *Session) Set(k string, v any) {
	s.data[k] = v
	s.modified = true
	s.accessed = true
}

// Delete removes k and reports whether it was present. Deleting a missing key leaves
// the flags untouched.
func (s *Session) Delete(k string) bool {
	if _, ok := s.data[k]; !ok {
		return false
	}
	delete(s.data, k)
	s.modified = true
	s.accessed = true
	return true
}

// Pop removes k and returns its value. A missing key only marks the session accessed.
func (s *Session) Pop(k string) (any, bool) {
	v, ok := s.data[k]
	s.modified = s.modified || ok
	s.accessed = true
	if ok {
		delete(s.data, k)
	}
	return v, ok
}

// PopDefault is Pop returning def when k is missing.
func (s *Session) PopDefault(k string, def any) any {
	if v, ok := s.Pop(k); ok {
		return v
	}
	return def
}

// SetDefault returns the value for k, inserting v first if k is missing.
func (s *Session) SetDefault(k string, v any) any {
	s.accessed = true
	if cur, ok := s.data[k]; ok {
		return cur
	}
	s.data[k] = v
	s.modified = true
	return v
}

// Update copies every entry of m into the session.
func (s *Session) Update(m map[string]any) {
	maps.Copy(s.data, m)
	s.modified = true
	s.accessed = true
}

// Clear removes all data.
func (s *Session) Clear() {
	s.data = Data{}
	s.modified = true
	s.accessed = true
}

// Len returns the number of entries.
func (s *Session) Len() int {
	s.accessed = true
	return len(s.data)
}

// Keys returns the keys in sorted order.
func (s *Session) Keys() []string {
	s.accessed = true
	return slices.Sorted(maps.Keys(s.data))
}

// Values returns the values ordered by key.
func (s *Session) Values() []any {
	keys := s.Keys()
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.data[k])
	}
	return out
}

// Items iterates over entries in key order.
func (s *Session) Items() iter.Seq2[string, any] {
	s.accessed = true
	return func(yield func(string, any) bool) {
		for _, k := range slices.Sorted(maps.Keys(s.data)) {
			if !yield(k, s.data[k]) {
				return
			}
		}
	}
}
