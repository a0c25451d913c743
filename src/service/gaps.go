package service

import (
	"time"

	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// Gap detection
// -----------------------------------------------------------------------------

// DateRange is an inclusive calendar-day interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// -----------------------------------------------------------------------------

// day strips the time component, keeping UTC calendar-day granularity.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

// MissingDates walks every calendar day in [start, end] inclusive and
// returns, in order, the days absent from present. An inverted range is an
// empty range. No weekend or holiday awareness on purpose: over-fetching a
// non-trading day just yields no row from the provider, which is cheaper
// than predicting exchange calendars here.
func MissingDates(start, end time.Time, present map[string]struct{}) []time.Time {
	start, end = day(start), day(end)
	if end.Before(start) {
		return nil
	}

	var missing []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := present[d.Format(models.DateLayout)]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

// -----------------------------------------------------------------------------

// CoalesceRanges groups an ascending day list into contiguous runs so the
// backfill issues the smallest number of range fetches.
func CoalesceRanges(days []time.Time) []DateRange {
	if len(days) == 0 {
		return nil
	}

	var ranges []DateRange
	run := DateRange{Start: days[0], End: days[0]}

	for _, d := range days[1:] {
		if d.Sub(run.End) == 24*time.Hour {
			run.End = d
			continue
		}
		ranges = append(ranges, run)
		run = DateRange{Start: d, End: d}
	}
	return append(ranges, run)
}
