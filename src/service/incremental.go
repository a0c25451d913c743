package service

import (
	"fmt"
	"sync"
	"time"

	"industry-analyze/src/cache"
	"industry-analyze/src/helpers"
	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

// defaultLookbackDays is how far back a request reaches when no start date
// is given.
const defaultLookbackDays = 365

// -----------------------------------------------------------------------------
// IncrementalService
// -----------------------------------------------------------------------------

// IncrementalService is the historical-data sync orchestrator. Per request
// it decides between serving from cache, backfilling only the missing date
// runs, and a full fetch, then writes any merged result back to the cache.
type IncrementalService struct {
	Cache  interfaces.ICacheStore
	Source interfaces.IDataSource
	Fresh  cache.FreshnessPolicy
	Logger *logger.Logger

	keyLocks sync.Map // cache key -> *sync.Mutex
}

// -----------------------------------------------------------------------------

func NewIncrementalService(store interfaces.ICacheStore, source interfaces.IDataSource, fresh cache.FreshnessPolicy) *IncrementalService {
	return &IncrementalService{
		Cache:  store,
		Source: source,
		Fresh:  fresh,
		Logger: logger.NewLogger("IncrementalService"),
	}
}

// -----------------------------------------------------------------------------

// SeriesResult is a served series plus its degradation marker. Stale means
// the provider could not be reached and the caller is seeing cached data
// older than the freshness window allows.
type SeriesResult struct {
	Series *models.MCachedSeries `json:"series"`
	Stale  bool                  `json:"stale"`
}

// -----------------------------------------------------------------------------

func historicalKey(symbol, period string) string {
	return fmt.Sprintf("historical_%s_%s", symbol, period)
}

// -----------------------------------------------------------------------------

// lockKey serialises fetch-and-merge per (symbol, period) so two
// simultaneous misses do not both hit the provider.
func (s *IncrementalService) lockKey(key string) func() {
	v, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// -----------------------------------------------------------------------------

// GetHistoricalData returns the series for (symbol, period) over the
// requested date range, fetching from the provider only what the cache is
// missing. Dates are YYYY-MM-DD; both are optional (defaults: end = today,
// start = one year before end).
func (s *IncrementalService) GetHistoricalData(symbol, startDate, endDate, period string, forceRefresh bool) (*SeriesResult, error) {
	// One sampled clock per invocation: freshness and merge stamps must not
	// drift within a single call.
	now := time.Now()

	start, end, err := resolveRange(startDate, endDate, now)
	if err != nil {
		return nil, err
	}
	startStr := start.Format(models.DateLayout)
	endStr := end.Format(models.DateLayout)

	key := historicalKey(symbol, period)
	unlock := s.lockKey(key)
	defer unlock()

	// CHECK_FORCE / CHECK_CACHE
	var cached *models.MCachedSeries
	series := new(models.MCachedSeries)
	if storedAt, ok := s.Cache.Get(key, series); ok {
		cached = series
		if start.After(end) {
			// Inverted range: nothing can be missing, never fetch.
			return &SeriesResult{Series: SliceSeries(cached, startStr, endStr)}, nil
		}
		if !forceRefresh && cache.IsFresh(storedAt, s.Fresh.Historical, now) {
			return s.incrementalUpdate(key, symbol, period, cached, start, end, startStr, endStr, now)
		}
	} else if start.After(end) {
		return nil, helpers.ErrNotFound
	}

	// FULL_FETCH: forced, absent, or stale beyond the freshness window.
	s.Logger.Info("Full fetch for %s (%s) %s..%s", symbol, period, startStr, endStr)
	return s.fullFetch(key, symbol, period, cached, start, end, startStr, endStr, now)
}

// -----------------------------------------------------------------------------

// incrementalUpdate runs CHECK_GAPS and, when needed, BACKFILL.
func (s *IncrementalService) incrementalUpdate(key, symbol, period string, cached *models.MCachedSeries, start, end time.Time, startStr, endStr string, now time.Time) (*SeriesResult, error) {
	missing := MissingDates(start, end, cached.PresentDates())
	if len(missing) == 0 {
		// SERVE_CACHE: the zero-network fast path.
		s.Logger.Info("%s cache complete for %s..%s, no fetch needed", symbol, startStr, endStr)
		return &SeriesResult{Series: SliceSeries(cached, startStr, endStr)}, nil
	}

	s.Logger.Info("%s missing %d day(s) in %s..%s, backfilling", symbol, len(missing), startStr, endStr)

	var fetched []models.MDatedRecord
	for _, r := range CoalesceRanges(missing) {
		rows, err := s.Source.FetchRange(symbol, period, r.Start, r.End)
		if err != nil {
			// Degraded success: the stale cached series still beats an error
			// for a read API.
			s.Logger.Warning("Backfill fetch failed for %s, serving cached data: %v", symbol, err)
			return &SeriesResult{Series: SliceSeries(cached, startStr, endStr), Stale: true}, nil
		}
		fetched = append(fetched, rows...)
	}

	if len(fetched) == 0 {
		// Nothing came back (non-trading days); the cache already holds
		// everything the provider has for this range.
		return &SeriesResult{Series: SliceSeries(cached, startStr, endStr)}, nil
	}

	// SERVE_MERGED
	merged := MergeSeries(symbol, period, cached, fetched, now)
	s.writeBack(key, merged)
	return &SeriesResult{Series: SliceSeries(merged, startStr, endStr)}, nil
}

// -----------------------------------------------------------------------------

// fullFetch pulls the whole requested range. cached may be nil; when it is
// not, a failed fetch degrades to serving it stale instead of erroring.
func (s *IncrementalService) fullFetch(key, symbol, period string, cached *models.MCachedSeries, start, end time.Time, startStr, endStr string, now time.Time) (*SeriesResult, error) {
	rows, err := s.Source.FetchRange(symbol, period, start, end)
	if err != nil || len(rows) == 0 {
		if cached != nil {
			s.Logger.Warning("Full fetch failed for %s, serving stale cached data: %v", symbol, err)
			return &SeriesResult{Series: SliceSeries(cached, startStr, endStr), Stale: true}, nil
		}
		if err != nil {
			s.Logger.Error("Full fetch failed for %s with empty cache: %v", symbol, err)
		}
		return nil, helpers.ErrNotFound
	}

	merged := MergeSeries(symbol, period, nil, rows, now)
	s.writeBack(key, merged)
	return &SeriesResult{Series: SliceSeries(merged, startStr, endStr)}, nil
}

// -----------------------------------------------------------------------------

// writeBack persists a merged series. Failures are logged, never surfaced:
// the served answer already left the function.
func (s *IncrementalService) writeBack(key string, series *models.MCachedSeries) {
	if err := s.Cache.Put(key, series); err != nil {
		s.Logger.Error("%v", &helpers.CacheWriteError{Key: key, Cause: err})
	}
}

// -----------------------------------------------------------------------------

// GetStatistics summarises the cached daily series for a symbol.
func (s *IncrementalService) GetStatistics(symbol string) (*models.MSeriesStatistics, error) {
	series := new(models.MCachedSeries)
	if _, ok := s.Cache.Get(historicalKey(symbol, "daily"), series); !ok || len(series.Data) == 0 {
		return nil, helpers.ErrNotFound
	}
	return SeriesStatistics(series), nil
}

// -----------------------------------------------------------------------------

func resolveRange(startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	end := day(now)
	if endDate != "" {
		t, err := time.Parse(models.DateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end_date %q: %v", helpers.ErrBadRequest, endDate, err)
		}
		end = day(t)
	}

	start := end.AddDate(0, 0, -defaultLookbackDays)
	if startDate != "" {
		t, err := time.Parse(models.DateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start_date %q: %v", helpers.ErrBadRequest, startDate, err)
		}
		start = day(t)
	}

	return start, end, nil
}
