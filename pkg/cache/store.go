// Package cache is a small disk-backed JSON cache with LRU eviction and
// per-entry TTL. The weather provider keeps upstream archive responses here
// so repeated dashboard fetches for the same day do not hit the network.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// StoreConfig holds configuration for a cache Store.
type StoreConfig struct {
	// Dir is the directory where entry files are written.
	Dir string

	// MaxEntries bounds the number of entries kept. Default: 256.
	MaxEntries int

	// DefaultTTL applies to Put. Zero means entries never expire.
	DefaultTTL time.Duration

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Stats holds runtime counters for a Store.
type Stats struct {
	Hits      int64
	Misses    int64
	Stale     int64
	Evictions int64
	Entries   int
}

// entry is the on-disk form of one cached value.
type entry struct {
	Key     string          `json:"key"`
	Stored  time.Time       `json:"stored"`
	Expires time.Time       `json:"expires,omitzero"`
	Value   json.RawMessage `json:"value"`
}

func (e *entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && now.After(e.Expires)
}

// Store is a disk-backed cache. Entries live in {hash}.json files written
// atomically via temp file and rename; an in-memory list tracks recency.
// It is safe for concurrent use.
type Store struct {
	cfg StoreConfig

	mu    sync.Mutex
	lru   *list.List               // front = most recently used, values are hashes
	items map[string]*list.Element // hash -> element
	stats Stats
}

// NewStore creates the cache directory if needed and indexes any entries
// already on disk. Unreadable entry files are removed.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: directory required")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", cfg.Dir, err)
	}

	s := &Store{
		cfg:   cfg,
		lru:   list.New(),
		items: make(map[string]*list.Element),
	}
	if err := s.scanDir(); err != nil {
		return nil, fmt.Errorf("cache: scan directory: %w", err)
	}
	return s, nil
}

// Get returns the raw JSON for key if present and fresh.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	v, fresh, ok := s.lookup(key)
	if !ok || !fresh {
		return nil, false
	}
	return v, true
}

// GetStale returns the raw JSON for key even if it has expired. fresh
// reports whether the TTL still holds. Callers use it to serve the last
// good value when the upstream is down.
func (s *Store) GetStale(key string) (value json.RawMessage, fresh, ok bool) {
	return s.lookup(key)
}

func (s *Store) lookup(key string) (json.RawMessage, bool, bool) {
	h := hashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[h]
	if !ok {
		s.stats.Misses++
		return nil, false, false
	}
	e, err := s.readEntry(h)
	if err != nil || e.Key != key {
		s.removeLocked(h, elem)
		s.stats.Misses++
		return nil, false, false
	}

	s.lru.MoveToFront(elem)
	if e.expired(s.cfg.Now()) {
		s.stats.Stale++
		return e.Value, false, true
	}
	s.stats.Hits++
	return e.Value, true, true
}

// Put stores raw JSON under key with the default TTL.
func (s *Store) Put(key string, value json.RawMessage) error {
	return s.PutWithTTL(key, value, s.cfg.DefaultTTL)
}

// PutWithTTL stores raw JSON under key. A zero ttl never expires.
func (s *Store) PutWithTTL(key string, value json.RawMessage, ttl time.Duration) error {
	if !json.Valid(value) {
		return fmt.Errorf("cache: value for %q is not valid JSON", key)
	}
	now := s.cfg.Now()
	e := entry{Key: key, Stored: now, Value: value}
	if ttl > 0 {
		e.Expires = now.Add(ttl)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: marshal entry %q: %w", key, err)
	}

	h := hashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomicWrite(s.path(h), b, s.cfg.Dir); err != nil {
		return fmt.Errorf("cache: write %q: %w", key, err)
	}
	if elem, ok := s.items[h]; ok {
		s.lru.MoveToFront(elem)
	} else {
		s.items[h] = s.lru.PushFront(h)
	}
	s.evictLocked()
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(key string) {
	h := hashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[h]; ok {
		s.removeLocked(h, elem)
	}
}

// Len returns the number of indexed entries, fresh or stale.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Entries = s.lru.Len()
	return st
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.cfg.Dir, hash+".json")
}

func (s *Store) readEntry(hash string) (*entry, error) {
	b, err := os.ReadFile(s.path(hash))
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// removeLocked drops an entry from the index and disk. Caller holds s.mu.
func (s *Store) removeLocked(hash string, elem *list.Element) {
	s.lru.Remove(elem)
	delete(s.items, hash)
	_ = os.Remove(s.path(hash))
}

// evictLocked trims the least recently used entries beyond MaxEntries.
func (s *Store) evictLocked() {
	for s.lru.Len() > s.cfg.MaxEntries {
		back := s.lru.Back()
		s.removeLocked(back.Value.(string), back)
		s.stats.Evictions++
	}
}

// scanDir indexes existing entries, oldest first so the newest end up at
// the front of the LRU.
func (s *Store) scanDir() error {
	des, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return err
	}

	type found struct {
		hash   string
		stored time.Time
	}
	var all []found
	for _, de := range des {
		name := de.Name()
		if de.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".tmp-") {
			_ = os.Remove(filepath.Join(s.cfg.Dir, name))
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		h := strings.TrimSuffix(name, ".json")
		e, err := s.readEntry(h)
		if err != nil {
			_ = os.Remove(s.path(h))
			continue
		}
		all = append(all, found{h, e.Stored})
	}

	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].stored.Before(all[j-1].stored); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	for _, f := range all {
		s.items[f.hash] = s.lru.PushFront(f.hash)
	}
	s.evictLocked()
	return nil
}

// hashKey returns the first 16 hex characters of the SHA-256 of key, a
// filesystem-safe name for any key.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte, tmpDir string) error {
	tmp, err := os.CreateTemp(tmpDir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	success = true
	return nil
}
