// Package datacache stores upstream JSON payloads on disk with a TTL,
// fronted by an in-process map so one run never reads the same entry from
// disk twice.
package datacache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is a TTL'd JSON payload cache. The zero value is not usable; call
// New.
type Store struct {
	dir string
	ttl time.Duration

	mu  sync.RWMutex
	mem map[string][]byte
}

// New creates a store rooted at dir. Entries older than ttl are treated as
// misses; ttl <= 0 disables expiry.
func New(dir string, ttl time.Duration) *Store {
	return &Store{
		dir: dir,
		ttl: ttl,
		mem: make(map[string][]byte),
	}
}

// Get returns the cached payload for key. Absent, expired, and corrupt
// entries all report ok=false so callers simply refetch.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	data, ok := s.mem[key]
	s.mu.RUnlock()
	if ok {
		return data, true
	}

	path := s.entryPath(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if s.ttl > 0 && time.Since(info.ModTime()) > s.ttl {
		return nil, false
	}

	data, err = os.ReadFile(path)
	if err != nil || len(data) == 0 || !json.Valid(data) {
		return nil, false
	}

	s.mu.Lock()
	s.mem[key] = data
	s.mu.Unlock()
	return data, true
}

// Put stores payload under key, writing to a temp file and renaming it
// into place so readers never observe a partial entry.
func (s *Store) Put(key string, payload []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data cache directory: %w", err)
	}

	path := s.entryPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move cache entry into place: %w", err)
	}

	s.mu.Lock()
	s.mem[key] = payload
	s.mu.Unlock()
	return nil
}

// Stats reports the number of entries on disk and their total size.
func (s *Store) Stats() (entries int, bytes int64, err error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read data cache directory: %w", err)
	}
	for _, item := range items {
		if item.IsDir() || filepath.Ext(item.Name()) != ".json" {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries++
		bytes += info.Size()
	}
	return entries, bytes, nil
}

// Clear removes every cached entry, on disk and in memory.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.mem = make(map[string][]byte)
	s.mu.Unlock()
	return os.RemoveAll(s.dir)
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
