package service

import (
	"sort"
	"time"

	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// Series merger
// -----------------------------------------------------------------------------

// MergeSeries combines a cached series with freshly fetched records into a
// new series. Where a date appears in both, the incoming record wins
// wholesale (replace-on-conflict, no field-level merge): a fetch is assumed
// more authoritative than whatever was cached for that day.
//
// Guarantee: the output has no duplicate dates and is sorted ascending,
// with DateRange recomputed from the resulting records.
func MergeSeries(symbol, period string, existing *models.MCachedSeries, incoming []models.MDatedRecord, now time.Time) *models.MCachedSeries {
	byDate := make(map[string]models.MDatedRecord)

	if existing != nil {
		for _, r := range existing.Data {
			if r.Date != "" {
				byDate[r.Date] = r
			}
		}
	}
	for _, r := range incoming {
		if r.Date != "" {
			byDate[r.Date] = r
		}
	}

	merged := make([]models.MDatedRecord, 0, len(byDate))
	for _, r := range byDate {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})

	source := models.SourceFullFetch
	if existing != nil && len(existing.Data) > 0 {
		source = models.SourceIncrementalUpdate
	}

	out := &models.MCachedSeries{
		Symbol:       symbol,
		Period:       period,
		Data:         merged,
		TotalRecords: len(merged),
		LastUpdated:  now,
		Source:       source,
	}
	if len(merged) > 0 {
		out.DateRange = models.MDateRange{
			Start: merged[0].Date,
			End:   merged[len(merged)-1].Date,
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// SliceSeries returns a copy of the series restricted to [start, end]
// (inclusive, date-string comparison). The cache keeps the full series;
// callers only ever see the window they asked for.
func SliceSeries(s *models.MCachedSeries, start, end string) *models.MCachedSeries {
	out := s.Clone()
	if start == "" && end == "" {
		return out
	}

	filtered := out.Data[:0:0]
	for _, r := range out.Data {
		if (start == "" || r.Date >= start) && (end == "" || r.Date <= end) {
			filtered = append(filtered, r)
		}
	}

	out.Data = filtered
	out.TotalRecords = len(filtered)
	out.DateRange = models.MDateRange{}
	if len(filtered) > 0 {
		out.DateRange = models.MDateRange{
			Start: filtered[0].Date,
			End:   filtered[len(filtered)-1].Date,
		}
	}
	return out
}
