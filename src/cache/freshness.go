package cache

import (
	"time"

	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// Freshness policy
// -----------------------------------------------------------------------------

// IsFresh reports whether an entry written at storedAt is still usable at
// now. A zero storedAt (malformed or legacy entry) is always stale. now is
// passed in, not sampled here: one orchestrator invocation uses one sampled
// clock so an entry cannot flip fresh-to-stale mid-evaluation.
func IsFresh(storedAt time.Time, window time.Duration, now time.Time) bool {
	if storedAt.IsZero() {
		return false
	}
	return now.Sub(storedAt) < window
}

// -----------------------------------------------------------------------------

// FreshnessPolicy carries the per-class TTL windows from config.
type FreshnessPolicy struct {
	Historical time.Duration
	Quote      time.Duration
	Roster     time.Duration
	Spot       time.Duration
}

// -----------------------------------------------------------------------------

func NewFreshnessPolicy(cfg models.MCacheConfig) FreshnessPolicy {
	return FreshnessPolicy{
		Historical: time.Duration(cfg.HistoricalTTLSeconds) * time.Second,
		Quote:      time.Duration(cfg.QuoteTTLSeconds) * time.Second,
		Roster:     time.Duration(cfg.RosterTTLSeconds) * time.Second,
		Spot:       time.Duration(cfg.SpotTTLSeconds) * time.Second,
	}
}
