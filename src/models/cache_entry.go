package models

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Generic cache entry
// -----------------------------------------------------------------------------

// MCacheEntry wraps an opaque payload with its write timestamp. Entries are
// always overwritten wholesale, never partially mutated.
type MCacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// MCacheInfo is the admin view of one cache entry.
type MCacheInfo struct {
	Key       string    `json:"cache_key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int       `json:"size_bytes"`
}
