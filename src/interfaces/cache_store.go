package interfaces

import (
	"time"

	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// ICacheStore defines the contract for the short-TTL cache layer.
// -----------------------------------------------------------------------------

type ICacheStore interface {

	// -----------------------------------------------------------------------------

	// Put stores value under key, overwriting any previous entry wholesale,
	// and stamps it with the current time. Failure means an underlying I/O
	// error; callers log it and keep serving their in-memory result.
	Put(key string, value interface{}) error

	// -----------------------------------------------------------------------------

	// Get unmarshals the entry for key into dest and returns its write
	// timestamp. ok is false when the key is absent or the entry is
	// unreadable; a malformed entry is treated as a miss, never an error.
	Get(key string, dest interface{}) (storedAt time.Time, ok bool)

	// -----------------------------------------------------------------------------

	// Delete removes a single entry, reporting whether it existed.
	Delete(key string) bool

	// -----------------------------------------------------------------------------

	// Keys lists stored keys, optionally filtered by prefix ("" for all).
	Keys(prefix string) []string

	// -----------------------------------------------------------------------------

	// Clear removes every entry.
	Clear() error

	// -----------------------------------------------------------------------------

	// Info describes all entries for the cache admin endpoint.
	Info() []models.MCacheInfo
}
