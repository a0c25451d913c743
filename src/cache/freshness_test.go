package cache

import (
	"testing"
	"time"

	"industry-analyze/src/models"
)

func TestIsFresh(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	tests := []struct {
		name     string
		storedAt time.Time
		want     bool
	}{
		{"just written", now, true},
		{"inside window", now.Add(-30 * time.Minute), true},
		{"exactly at window", now.Add(-time.Hour), false},
		{"past window", now.Add(-2 * time.Hour), false},
		{"zero timestamp", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.storedAt, window, now); got != tt.want {
				t.Errorf("IsFresh(%v) = %v, want %v", tt.storedAt, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestNewFreshnessPolicy(t *testing.T) {
	policy := NewFreshnessPolicy(models.MCacheConfig{
		HistoricalTTLSeconds: 86400,
		QuoteTTLSeconds:      300,
		RosterTTLSeconds:     600,
		SpotTTLSeconds:       120,
	})

	if policy.Historical != 24*time.Hour {
		t.Errorf("Historical = %v, want 24h", policy.Historical)
	}
	if policy.Quote != 5*time.Minute {
		t.Errorf("Quote = %v, want 5m", policy.Quote)
	}
	if policy.Roster != 10*time.Minute {
		t.Errorf("Roster = %v, want 10m", policy.Roster)
	}
	if policy.Spot != 2*time.Minute {
		t.Errorf("Spot = %v, want 2m", policy.Spot)
	}
}
