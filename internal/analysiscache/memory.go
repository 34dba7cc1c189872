package analysiscache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]Entry
	closed  bool
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Entry{}, false, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	e.Value = append([]byte(nil), e.Value...)
	return e, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	entry.Value = append([]byte(nil), entry.Value...)
	m.entries[entry.Key] = entry
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key)
	return nil
}

func (m *MemoryBackend) Purge(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	removed := 0
	for key, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryBackend) Clear(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	n := len(m.entries)
	m.entries = make(map[string]Entry)
	return n, nil
}

func (m *MemoryBackend) Stats(_ context.Context, now time.Time) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Stats{}, ErrClosed
	}
	stats := Stats{Backend: m.Name()}
	for _, e := range m.entries {
		stats.observe(e, int64(len(e.Value)), now)
	}
	return stats, nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
