package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// FileStore
// -----------------------------------------------------------------------------

// FileStore persists all cache entries in a single JSON document:
// {"<key>": {"data": <payload>, "timestamp": "<ISO-8601>"}}.
// A mutex serialises access; concurrent requests may still interleave at
// the key level (last Put wins), which is acceptable for a read-mostly
// cache with full-overwrite semantics.
type FileStore struct {
	path   string
	Logger *logger.Logger
	mu     sync.Mutex
}

// -----------------------------------------------------------------------------

func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{path: path, Logger: log}, nil
}

// -----------------------------------------------------------------------------

// load reads the full cache document. Missing or unreadable files are an
// empty cache, not an error: a corrupt cache degrades to a refetch.
func (s *FileStore) load() map[string]models.MCacheEntry {
	entries := make(map[string]models.MCacheEntry)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Logger.Warning("Failed to read cache file: %v", err)
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		s.Logger.Warning("Cache file is malformed, treating as empty: %v", err)
		return make(map[string]models.MCacheEntry)
	}
	return entries
}

// -----------------------------------------------------------------------------

func (s *FileStore) save(entries map[string]models.MCacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// -----------------------------------------------------------------------------

// Put overwrites the entry for key wholesale and stamps it with now.
func (s *FileStore) Put(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[key] = models.MCacheEntry{
		Data:      payload,
		Timestamp: time.Now(),
	}
	return s.save(entries)
}

// -----------------------------------------------------------------------------

// Get unmarshals the entry for key into dest. Malformed payloads count as
// a miss so a stale schema never breaks the read path.
func (s *FileStore) Get(key string, dest interface{}) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.load()[key]
	if !ok {
		return time.Time{}, false
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		s.Logger.Warning("Cache entry %q is unreadable: %v", key, err)
		return time.Time{}, false
	}
	return entry.Timestamp, true
}

// -----------------------------------------------------------------------------

func (s *FileStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	if _, ok := entries[key]; !ok {
		return false
	}
	delete(entries, key)

	if err := s.save(entries); err != nil {
		s.Logger.Error("Failed to persist cache delete for %q: %v", key, err)
		return false
	}
	return true
}

// -----------------------------------------------------------------------------

func (s *FileStore) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k := range s.load() {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// -----------------------------------------------------------------------------

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(make(map[string]models.MCacheEntry))
}

// -----------------------------------------------------------------------------

func (s *FileStore) Info() []models.MCacheInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	info := make([]models.MCacheInfo, 0, len(entries))
	for k, e := range entries {
		info = append(info, models.MCacheInfo{
			Key:       k,
			Timestamp: e.Timestamp,
			SizeBytes: len(e.Data),
		})
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Key < info[j].Key })
	return info
}
