package helpers

import (
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Error taxonomy
// -----------------------------------------------------------------------------

// ErrNotFound means no data exists anywhere for the requested key: not in
// cache, not at the provider, not in the durable store. It is the only
// failure that escapes to the outermost caller as a negative result.
var ErrNotFound = errors.New("no data available")

// ErrBadRequest means the caller's parameters cannot be honored (malformed
// dates and the like). The API layer maps it to a 400.
var ErrBadRequest = errors.New("bad request")

// -----------------------------------------------------------------------------

// FetchError is a failed provider call. It is always handled at the
// orchestrator boundary and converted into a fallback or a NotFound; it
// never propagates to API callers.
type FetchError struct {
	Source string
	Op     string
	Cause  error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s failed: %v", e.Source, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s failed", e.Source, e.Op)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// CacheWriteError is a failed cache writeback. Non-fatal: the computed
// result has already been served, the failure is only logged.
type CacheWriteError struct {
	Key   string
	Cause error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write for %q failed: %v", e.Key, e.Cause)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxRetries times with exponential backoff.
func RetryWithBackoff(maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxRetries-1 {
			break
		}
		time.Sleep(baseDelay * (1 << attempt))
	}

	return lastErr
}
