package analysiscache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("cache backend closed")

// Entry is one stored value.
type Entry struct {
	Key      string
	Value    []byte
	StoredAt time.Time
	// ExpiresAt is zero for entries that never expire.
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its deadline at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Stats summarizes backend contents.
type Stats struct {
	Backend string
	Entries int
	Expired int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

func (s *Stats) observe(e Entry, size int64, now time.Time) {
	s.Entries++
	s.Bytes += size
	if e.Expired(now) {
		s.Expired++
	}
	if s.Oldest.IsZero() || e.StoredAt.Before(s.Oldest) {
		s.Oldest = e.StoredAt
	}
	if e.StoredAt.After(s.Newest) {
		s.Newest = e.StoredAt
	}
}

// Backend stores raw cache entries. Implementations are safe for concurrent
// use. Get returns ok=false without error when the key is absent; expiry is
// left to the caller.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	// Purge removes entries expired at now and returns how many were removed.
	Purge(ctx context.Context, now time.Time) (int, error)
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
	Stats(ctx context.Context, now time.Time) (Stats, error)
	Close() error
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
