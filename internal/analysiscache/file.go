package analysiscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileEntrySuffix = ".json"
	lockFileName    = ".lock"
)

// FileBackend stores one JSON document per key in a directory. A flock on
// the directory serializes writers across processes.
type FileBackend struct {
	dir  string
	mu   sync.RWMutex
	lock *flock.Flock
}

type fileRecord struct {
	Key       string    `json:"key"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

// OpenFile prepares dir for use as a file backend.
func OpenFile(dir string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileBackend{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

// Dir returns the entry directory.
func (f *FileBackend) Dir() string { return f.dir }

func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) entryPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+fileEntrySuffix)
}

func (f *FileBackend) withReadLock(fn func() error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.lock.RLock(); err != nil {
		return fmt.Errorf("acquire cache read lock: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()
	return fn()
}

func (f *FileBackend) withWriteLock(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()
	return fn()
}

func readRecord(path string) (fileRecord, error) {
	var rec fileRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse cache entry %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

func (f *FileBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	var (
		rec   fileRecord
		found bool
	)
	err := f.withReadLock(func() error {
		var err error
		rec, err = readRecord(f.entryPath(key))
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		found = rec.Key == key
		return nil
	})
	if err != nil || !found {
		return Entry{}, false, err
	}
	return Entry{Key: rec.Key, Value: rec.Value, StoredAt: rec.StoredAt, ExpiresAt: rec.ExpiresAt}, true, nil
}

func (f *FileBackend) Set(_ context.Context, entry Entry) error {
	data, err := json.Marshal(fileRecord{
		Key:       entry.Key,
		StoredAt:  entry.StoredAt,
		ExpiresAt: entry.ExpiresAt,
		Value:     entry.Value,
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return f.withWriteLock(func() error {
		path := f.entryPath(entry.Key)
		tmp, err := os.CreateTemp(f.dir, ".entry-*")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		tmpPath := tmp.Name()
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("close temp file: %w", err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("rename temp file: %w", err)
		}
		return nil
	})
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	return f.withWriteLock(func() error {
		if err := os.Remove(f.entryPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove cache entry: %w", err)
		}
		return nil
	})
}

// entries lists entry file paths. Temp files and the lock file are skipped.
func (f *FileBackend) entries() ([]string, error) {
	dirEntries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	paths := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileEntrySuffix) {
			continue
		}
		paths = append(paths, filepath.Join(f.dir, de.Name()))
	}
	return paths, nil
}

func (f *FileBackend) Purge(_ context.Context, now time.Time) (int, error) {
	removed := 0
	err := f.withWriteLock(func() error {
		paths, err := f.entries()
		if err != nil {
			return err
		}
		for _, path := range paths {
			rec, err := readRecord(path)
			if err == nil && !(Entry{ExpiresAt: rec.ExpiresAt}).Expired(now) {
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove cache entry: %w", err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (f *FileBackend) Clear(context.Context) (int, error) {
	removed := 0
	err := f.withWriteLock(func() error {
		paths, err := f.entries()
		if err != nil {
			return err
		}
		for _, path := range paths {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove cache entry: %w", err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (f *FileBackend) Stats(_ context.Context, now time.Time) (Stats, error) {
	stats := Stats{Backend: f.Name()}
	err := f.withReadLock(func() error {
		paths, err := f.entries()
		if err != nil {
			return err
		}
		for _, path := range paths {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			rec, err := readRecord(path)
			if err != nil {
				// Corrupt entries count as expired; Purge removes them.
				stats.observe(Entry{StoredAt: info.ModTime(), ExpiresAt: time.Unix(0, 1)}, info.Size(), now)
				continue
			}
			stats.observe(Entry{StoredAt: rec.StoredAt, ExpiresAt: rec.ExpiresAt}, info.Size(), now)
		}
		return nil
	})
	return stats, err
}

// Close releases the lock handle.
func (f *FileBackend) Close() error {
	if f == nil || f.lock == nil {
		return nil
	}
	return f.lock.Close()
}
