package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryServer keeps sessions in process memory. It serves tests, examples and
// single-instance deployments; every key maps to the same transport.
type MemoryServer struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	now         func() time.Time
	unavailable bool
}

// NewMemoryServer returns an empty in-memory server.
func NewMemoryServer() *MemoryServer {
	return &MemoryServer{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for expiry.
func (m *MemoryServer) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// SetUnavailable makes every operation fail with ErrStoreUnavailable until reset.
func (m *MemoryServer) SetUnavailable(down bool) {
	m.mu.Lock()
	m.unavailable = down
	m.mu.Unlock()
}

// Len returns the number of live entries.
func (m *MemoryServer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.entries)
}

// Connect implements Server.
func (m *MemoryServer) Connect(string) (Transport, error) {
	return m, nil
}

func (m *MemoryServer) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked("get"); err != nil {
		return nil, err
	}
	e, ok := m.liveLocked(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryServer) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked("set"); err != nil {
		return err
	}
	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}
	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryServer) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked("delete"); err != nil {
		return err
	}
	delete(m.entries, key)
	return nil
}

func (m *MemoryServer) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked("exists"); err != nil {
		return false, err
	}
	_, ok := m.liveLocked(key)
	return ok, nil
}

func (m *MemoryServer) checkLocked(op string) error {
	if m.unavailable {
		return fmt.Errorf("%w: %s: memory server marked unavailable", ErrStoreUnavailable, op)
	}
	return nil
}

func (m *MemoryServer) liveLocked(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryServer) sweepLocked() {
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
