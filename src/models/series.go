package models

import "time"

// -----------------------------------------------------------------------------
// Cached historical series
// -----------------------------------------------------------------------------

// Provenance tags for a cached series.
const (
	SourceFullFetch         = "full_fetch"
	SourceIncrementalUpdate = "incremental_update"
)

// MCachedSeries is the cache payload for one (symbol, period) key.
// Invariant: Data is sorted ascending by date with no duplicate dates, and
// DateRange matches the first/last record.
type MCachedSeries struct {
	Symbol       string         `json:"symbol"`
	Period       string         `json:"period"` // daily, weekly, monthly
	Data         []MDatedRecord `json:"data"`
	TotalRecords int            `json:"total_records"`
	DateRange    MDateRange     `json:"date_range"`
	LastUpdated  time.Time      `json:"last_updated"`
	Source       string         `json:"source"` // provenance tag
}

// -----------------------------------------------------------------------------

// Clone returns a deep copy so callers never alias cached state.
func (s *MCachedSeries) Clone() *MCachedSeries {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = make([]MDatedRecord, len(s.Data))
	copy(out.Data, s.Data)
	return &out
}

// -----------------------------------------------------------------------------

// PresentDates returns the set of record dates in the series.
func (s *MCachedSeries) PresentDates() map[string]struct{} {
	dates := make(map[string]struct{}, len(s.Data))
	for _, r := range s.Data {
		dates[r.Date] = struct{}{}
	}
	return dates
}

// -----------------------------------------------------------------------------

// MSeriesStatistics summarises a cached daily series.
type MSeriesStatistics struct {
	Symbol       string             `json:"symbol"`
	TotalRecords int                `json:"total_records"`
	DateRange    MDateRange         `json:"date_range"`
	PriceStats   map[string]float64 `json:"price_stats"`  // min, max, avg, std
	VolumeStats  map[string]float64 `json:"volume_stats"` // total, avg
	LastUpdated  time.Time          `json:"last_updated"`
}
