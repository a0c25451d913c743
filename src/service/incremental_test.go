package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"industry-analyze/src/cache"
	"industry-analyze/src/helpers"
	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// In-memory fakes
// -----------------------------------------------------------------------------

type fakeEntry struct {
	data     []byte
	storedAt time.Time
}

type fakeCache struct {
	entries map[string]fakeEntry
	puts    int
	putErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeEntry)}
}

func (c *fakeCache) seed(t *testing.T, key string, value interface{}, storedAt time.Time) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("seed marshal: %v", err)
	}
	c.entries[key] = fakeEntry{data: data, storedAt: storedAt}
}

func (c *fakeCache) Put(key string, value interface{}) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = fakeEntry{data: data, storedAt: time.Now()}
	return nil
}

func (c *fakeCache) Get(key string, dest interface{}) (time.Time, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return time.Time{}, false
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return time.Time{}, false
	}
	return entry.storedAt, true
}

func (c *fakeCache) Delete(key string) bool {
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

func (c *fakeCache) Keys(prefix string) []string {
	var keys []string
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *fakeCache) Clear() error {
	c.entries = make(map[string]fakeEntry)
	return nil
}

func (c *fakeCache) Info() []models.MCacheInfo { return nil }

// -----------------------------------------------------------------------------

type rangeCall struct {
	symbol, period string
	start, end     time.Time
}

type fakeSource struct {
	rangeCalls []rangeCall
	fetchRange func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error)
	fetchSpot  func(symbol string) (*models.MRealtimeQuote, error)
	roster     func(industry string) ([]models.MCompany, error)
	financials func(symbol string) ([]models.MFinancialRecord, error)
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) FetchRange(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
	s.rangeCalls = append(s.rangeCalls, rangeCall{symbol, period, start, end})
	if s.fetchRange == nil {
		return nil, nil
	}
	return s.fetchRange(symbol, period, start, end)
}

func (s *fakeSource) FetchSpot(symbol string) (*models.MRealtimeQuote, error) {
	if s.fetchSpot == nil {
		return nil, errors.New("no spot data")
	}
	return s.fetchSpot(symbol)
}

func (s *fakeSource) FetchIndustryRoster(industry string) ([]models.MCompany, error) {
	if s.roster == nil {
		return nil, errors.New("no roster data")
	}
	return s.roster(industry)
}

func (s *fakeSource) FetchFinancials(symbol string) ([]models.MFinancialRecord, error) {
	if s.financials == nil {
		return nil, errors.New("no financial data")
	}
	return s.financials(symbol)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

var testPolicy = cache.FreshnessPolicy{
	Historical: 24 * time.Hour,
	Quote:      5 * time.Minute,
	Roster:     5 * time.Minute,
	Spot:       5 * time.Minute,
}

// dayRecords produces one record per calendar day in [start, end].
func dayRecords(start, end string) []models.MDatedRecord {
	var recs []models.MDatedRecord
	for cur := d(start); !cur.After(d(end)); cur = cur.AddDate(0, 0, 1) {
		recs = append(recs, rec(cur.Format(models.DateLayout), 10))
	}
	return recs
}

func seedSeries(t *testing.T, store *fakeCache, symbol, start, end string, storedAt time.Time) {
	t.Helper()
	recs := dayRecords(start, end)
	store.seed(t, "historical_"+symbol+"_daily", &models.MCachedSeries{
		Symbol:       symbol,
		Period:       "daily",
		Data:         recs,
		TotalRecords: len(recs),
		DateRange:    models.MDateRange{Start: start, End: end},
		LastUpdated:  storedAt,
		Source:       models.SourceFullFetch,
	}, storedAt)
}

// -----------------------------------------------------------------------------
// Backfill
// -----------------------------------------------------------------------------

func TestGetHistoricalDataBackfillsOnlyMissingRange(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2023-01-01", "2023-10-28", time.Now())

	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return dayRecords(start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2023-01-01", "2024-01-01", "daily", false)
	if err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}
	if result.Stale {
		t.Error("result marked stale after a successful backfill")
	}

	if len(source.rangeCalls) != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", len(source.rangeCalls))
	}
	call := source.rangeCalls[0]
	if got := call.start.Format(models.DateLayout); got != "2023-10-29" {
		t.Errorf("fetch start = %s, want 2023-10-29 (day after cached end)", got)
	}
	if got := call.end.Format(models.DateLayout); got != "2024-01-01" {
		t.Errorf("fetch end = %s, want 2024-01-01", got)
	}

	if result.Series.DateRange.Start != "2023-01-01" || result.Series.DateRange.End != "2024-01-01" {
		t.Errorf("served range = %+v, want 2023-01-01..2024-01-01", result.Series.DateRange)
	}
	if result.Series.Source != models.SourceIncrementalUpdate {
		t.Errorf("Source = %q, want %q", result.Series.Source, models.SourceIncrementalUpdate)
	}

	// Writeback must have landed
	if store.puts != 1 {
		t.Errorf("expected 1 cache writeback, got %d", store.puts)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataServesCacheWithoutFetch(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2023-01-01", "2023-12-31", time.Now())

	source := &fakeSource{}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2023-03-01", "2023-03-31", "daily", false)
	if err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}

	if len(source.rangeCalls) != 0 {
		t.Fatalf("expected no fetches for a fully cached subrange, got %d", len(source.rangeCalls))
	}
	if result.Series.TotalRecords != 31 {
		t.Errorf("TotalRecords = %d, want 31 (served window only)", result.Series.TotalRecords)
	}
	if result.Series.DateRange.Start != "2023-03-01" || result.Series.DateRange.End != "2023-03-31" {
		t.Errorf("served range = %+v, want 2023-03-01..2023-03-31", result.Series.DateRange)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataIdempotentSecondCall(t *testing.T) {
	store := newFakeCache()
	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return dayRecords(start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	if _, err := svc.GetHistoricalData("600519", "2023-06-01", "2023-06-30", "daily", false); err != nil {
		t.Fatalf("first call: %v", err)
	}
	fetchesAfterFirst := len(source.rangeCalls)

	if _, err := svc.GetHistoricalData("600519", "2023-06-01", "2023-06-30", "daily", false); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if len(source.rangeCalls) != fetchesAfterFirst {
		t.Errorf("second identical call fetched again: %d -> %d calls", fetchesAfterFirst, len(source.rangeCalls))
	}
}

// -----------------------------------------------------------------------------
// Full fetch
// -----------------------------------------------------------------------------

func TestGetHistoricalDataFullFetchOnEmptyCache(t *testing.T) {
	store := newFakeCache()
	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return dayRecords(start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2023-01-01", "2023-01-10", "daily", false)
	if err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}

	if len(source.rangeCalls) != 1 {
		t.Fatalf("expected 1 full fetch, got %d", len(source.rangeCalls))
	}
	call := source.rangeCalls[0]
	if call.start.Format(models.DateLayout) != "2023-01-01" || call.end.Format(models.DateLayout) != "2023-01-10" {
		t.Errorf("full fetch range = %s..%s, want requested range",
			call.start.Format(models.DateLayout), call.end.Format(models.DateLayout))
	}

	if result.Series.Source != models.SourceFullFetch {
		t.Errorf("Source = %q, want %q", result.Series.Source, models.SourceFullFetch)
	}
	if store.puts != 1 {
		t.Errorf("expected 1 cache writeback, got %d", store.puts)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataStaleEntryTriggersFullFetch(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2023-01-01", "2023-01-10", time.Now().Add(-25*time.Hour))

	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return dayRecords(start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2023-01-01", "2023-01-10", "daily", false)
	if err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}

	if len(source.rangeCalls) != 1 {
		t.Fatalf("expected 1 full fetch for stale entry, got %d", len(source.rangeCalls))
	}
	if result.Stale {
		t.Error("result marked stale after a successful refetch")
	}
	if result.Series.Source != models.SourceFullFetch {
		t.Errorf("Source = %q, want %q", result.Series.Source, models.SourceFullFetch)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataForceRefreshBypassesFreshCache(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2023-01-01", "2023-01-10", time.Now())

	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return dayRecords(start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	if _, err := svc.GetHistoricalData("600519", "2023-01-01", "2023-01-10", "daily", true); err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}

	if len(source.rangeCalls) != 1 {
		t.Errorf("force refresh should always fetch, got %d calls", len(source.rangeCalls))
	}
}

// -----------------------------------------------------------------------------
// Degraded serving
// -----------------------------------------------------------------------------

func TestGetHistoricalDataBackfillFailureServesCached(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2023-01-01", "2023-10-28", time.Now())

	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return nil, &helpers.FetchError{Source: "fake", Op: "FetchRange", Cause: errors.New("connection refused")}
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2023-01-01", "2024-01-01", "daily", false)
	if err != nil {
		t.Fatalf("fetch failure with cached data should not error: %v", err)
	}

	if !result.Stale {
		t.Error("result should be marked stale when the backfill fetch fails")
	}
	if result.Series.TotalRecords == 0 {
		t.Error("cached records should still be served")
	}
	if result.Series.DateRange.End != "2023-10-28" {
		t.Errorf("served end = %s, want cached end 2023-10-28", result.Series.DateRange.End)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataFullFetchFailureServesStaleCache(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2023-01-01", "2023-01-10", time.Now().Add(-48*time.Hour))

	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2023-01-01", "2023-01-10", "daily", false)
	if err != nil {
		t.Fatalf("fetch failure with stale cache should degrade, not error: %v", err)
	}
	if !result.Stale {
		t.Error("degraded result should be marked stale")
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataNotFoundWhenNothingAnywhere(t *testing.T) {
	store := newFakeCache()
	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	_, err := svc.GetHistoricalData("600519", "2023-01-01", "2023-01-10", "daily", false)
	if !errors.Is(err, helpers.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataEmptyFetchNoCacheIsNotFound(t *testing.T) {
	store := newFakeCache()
	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return nil, nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	_, err := svc.GetHistoricalData("999999", "2023-01-01", "2023-01-10", "daily", false)
	if !errors.Is(err, helpers.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataRejectsBadDates(t *testing.T) {
	svc := NewIncrementalService(newFakeCache(), &fakeSource{}, testPolicy)

	if _, err := svc.GetHistoricalData("600519", "01/02/2023", "", "daily", false); !errors.Is(err, helpers.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest for malformed start_date", err)
	}
	if _, err := svc.GetHistoricalData("600519", "", "2023-13-40", "daily", false); !errors.Is(err, helpers.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest for malformed end_date", err)
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataInvertedRangeNeverFetches(t *testing.T) {
	source := &fakeSource{}
	svc := NewIncrementalService(newFakeCache(), source, testPolicy)

	if _, err := svc.GetHistoricalData("600519", "2024-02-01", "2024-01-01", "daily", false); !errors.Is(err, helpers.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(source.rangeCalls) != 0 {
		t.Errorf("inverted range must not reach the provider, got %d fetches", len(source.rangeCalls))
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataInvertedRangeServesEmptyFromCache(t *testing.T) {
	store := newFakeCache()
	seedSeries(t, store, "600519", "2024-01-01", "2024-01-31", time.Now())

	source := &fakeSource{}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2024-02-01", "2024-01-01", "daily", false)
	if err != nil {
		t.Fatalf("GetHistoricalData: %v", err)
	}
	if len(result.Series.Data) != 0 {
		t.Errorf("expected an empty slice for an inverted range, got %d records", len(result.Series.Data))
	}
	if len(source.rangeCalls) != 0 {
		t.Errorf("inverted range must not reach the provider, got %d fetches", len(source.rangeCalls))
	}
}

// -----------------------------------------------------------------------------

func TestGetHistoricalDataServesWhenCacheWriteFails(t *testing.T) {
	store := newFakeCache()
	store.putErr = errors.New("disk full")

	source := &fakeSource{
		fetchRange: func(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
			return dayRecords(start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
		},
	}
	svc := NewIncrementalService(store, source, testPolicy)

	result, err := svc.GetHistoricalData("600519", "2024-01-01", "2024-01-10", "daily", false)
	if err != nil {
		t.Fatalf("writeback failure must not surface: %v", err)
	}
	if result.Stale {
		t.Error("fetched data is not stale")
	}
	if len(result.Series.Data) != 10 {
		t.Errorf("got %d records, want 10", len(result.Series.Data))
	}

	// The write was attempted but nothing stuck
	if store.puts != 1 {
		t.Errorf("expected 1 attempted cache write, got %d", store.puts)
	}
	if len(store.entries) != 0 {
		t.Errorf("failed write must leave the cache empty, got %d entries", len(store.entries))
	}
}

// -----------------------------------------------------------------------------
// Statistics
// -----------------------------------------------------------------------------

func TestGetStatistics(t *testing.T) {
	store := newFakeCache()
	recs := []models.MDatedRecord{
		{Date: "2024-01-01", Close: f(10), Volume: f(100)},
		{Date: "2024-01-02", Close: f(20), Volume: f(300)},
	}
	store.seed(t, "historical_600519_daily", &models.MCachedSeries{
		Symbol: "600519", Period: "daily", Data: recs, TotalRecords: 2,
		DateRange: models.MDateRange{Start: "2024-01-01", End: "2024-01-02"},
	}, time.Now())

	svc := NewIncrementalService(store, &fakeSource{}, testPolicy)

	stats, err := svc.GetStatistics("600519")
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}

	if stats.PriceStats["min"] != 10 || stats.PriceStats["max"] != 20 || stats.PriceStats["avg"] != 15 {
		t.Errorf("price stats = %+v", stats.PriceStats)
	}
	if stats.VolumeStats["total"] != 400 || stats.VolumeStats["avg"] != 200 {
		t.Errorf("volume stats = %+v", stats.VolumeStats)
	}
}

// -----------------------------------------------------------------------------

func TestGetStatisticsNotFound(t *testing.T) {
	svc := NewIncrementalService(newFakeCache(), &fakeSource{}, testPolicy)

	if _, err := svc.GetStatistics("600519"); !errors.Is(err, helpers.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
