package service

import (
	"fmt"
	"time"

	"industry-analyze/src/cache"
	"industry-analyze/src/helpers"
	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// RealtimeService
// -----------------------------------------------------------------------------

// RealtimeService is the hybrid retriever for point-in-time data. Reads go
// through three tiers: short-TTL cache, live provider fetch, then the
// durable local store. Each tier that succeeds refreshes the ones above it.
type RealtimeService struct {
	Cache   interfaces.ICacheStore
	Source  interfaces.IDataSource
	Durable interfaces.IDurableStore
	Fresh   cache.FreshnessPolicy
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRealtimeService(store interfaces.ICacheStore, source interfaces.IDataSource, durable interfaces.IDurableStore, fresh cache.FreshnessPolicy) *RealtimeService {
	return &RealtimeService{
		Cache:   store,
		Source:  source,
		Durable: durable,
		Fresh:   fresh,
		Logger:  logger.NewLogger("RealtimeService"),
	}
}

// -----------------------------------------------------------------------------

func stockQuoteKey(symbol string) string {
	return fmt.Sprintf("stock_cache_%s", symbol)
}

func industryRosterKey(industry string) string {
	return fmt.Sprintf("industry_cache_%s", industry)
}

// -----------------------------------------------------------------------------

// GetStockRealtime returns the latest quote for a symbol: cached if fresh,
// otherwise fetched live, otherwise rebuilt from the durable company
// record as a last resort. force skips the cache tier.
func (s *RealtimeService) GetStockRealtime(symbol string, force bool) (*models.MRealtimeQuote, error) {
	now := time.Now()
	key := stockQuoteKey(symbol)

	if !force {
		quote := new(models.MRealtimeQuote)
		if storedAt, ok := s.Cache.Get(key, quote); ok && cache.IsFresh(storedAt, s.Fresh.Quote, now) {
			return quote, nil
		}
	}

	fetched, err := s.Source.FetchSpot(symbol)
	if err == nil && fetched != nil {
		if werr := s.Cache.Put(key, fetched); werr != nil {
			s.Logger.Error("%v", &helpers.CacheWriteError{Key: key, Cause: werr})
		}
		return fetched, nil
	}
	if err != nil {
		s.Logger.Warning("Spot fetch failed for %s, falling back to local store: %v", symbol, err)
	}

	company, derr := s.Durable.GetCompany(symbol)
	if derr != nil {
		s.Logger.Error("Local store read failed for %s: %v", symbol, derr)
	}
	if company == nil {
		return nil, helpers.ErrNotFound
	}

	return &models.MRealtimeQuote{
		Code:          company.Code,
		Name:          company.Name,
		CurrentPrice:  company.CurrentPrice,
		ChangePercent: company.ChangePercent,
		MarketCap:     company.MarketCap,
		Industry:      company.Industry,
		Market:        company.Market,
		Source:        "local_store",
		UpdateTime:    company.UpdatedAt,
	}, nil
}

// -----------------------------------------------------------------------------

// GetIndustryCompanies returns the roster for an industry. A successful
// live fetch also upserts each company into the durable store so the
// fallback tier keeps up with the market. force skips the cache tier.
func (s *RealtimeService) GetIndustryCompanies(industry string, force bool) ([]models.MCompany, error) {
	now := time.Now()
	key := industryRosterKey(industry)

	if !force {
		var roster []models.MCompany
		if storedAt, ok := s.Cache.Get(key, &roster); ok && cache.IsFresh(storedAt, s.Fresh.Roster, now) && len(roster) > 0 {
			return roster, nil
		}
	}

	fetched, err := s.Source.FetchIndustryRoster(industry)
	if err == nil && len(fetched) > 0 {
		if werr := s.Cache.Put(key, fetched); werr != nil {
			s.Logger.Error("%v", &helpers.CacheWriteError{Key: key, Cause: werr})
		}
		for _, c := range fetched {
			if serr := s.Durable.SaveCompany(c); serr != nil {
				s.Logger.Warning("Failed to persist company %s: %v", c.Code, serr)
			}
		}
		return fetched, nil
	}
	if err != nil {
		s.Logger.Warning("Roster fetch failed for %s, falling back to local store: %v", industry, err)
	}

	stored, derr := s.Durable.GetCompaniesByIndustry(industry)
	if derr != nil {
		s.Logger.Error("Local store read failed for industry %s: %v", industry, derr)
	}
	if len(stored) == 0 {
		return nil, helpers.ErrNotFound
	}
	return stored, nil
}

// -----------------------------------------------------------------------------

// GetFinancialData returns company fundamentals, durable-first: financial
// reports change quarterly at most, so the local store is authoritative
// once populated and the provider is only consulted to fill it.
func (s *RealtimeService) GetFinancialData(symbol string) ([]models.MFinancialRecord, error) {
	stored, err := s.Durable.GetFinancialRecords(symbol)
	if err != nil {
		s.Logger.Error("Local store read failed for %s financials: %v", symbol, err)
	}
	if len(stored) > 0 {
		return stored, nil
	}

	fetched, ferr := s.Source.FetchFinancials(symbol)
	if ferr != nil {
		s.Logger.Warning("Financials fetch failed for %s: %v", symbol, ferr)
		return nil, helpers.ErrNotFound
	}
	if len(fetched) == 0 {
		return nil, helpers.ErrNotFound
	}

	for _, rec := range fetched {
		if serr := s.Durable.SaveFinancialRecord(symbol, rec); serr != nil {
			s.Logger.Warning("Failed to persist financial record for %s: %v", symbol, serr)
		}
	}
	return fetched, nil
}

// -----------------------------------------------------------------------------

// GetIndustryData returns aggregate metrics for an industry, durable-first.
// When absent, metrics are derived from a live roster fetch (company count,
// summed market cap) and persisted.
func (s *RealtimeService) GetIndustryData(industry string) (*models.MIndustryData, error) {
	stored, err := s.Durable.GetIndustryData(industry)
	if err != nil {
		s.Logger.Error("Local store read failed for industry data %s: %v", industry, err)
	}
	if stored != nil {
		return stored, nil
	}

	roster, ferr := s.Source.FetchIndustryRoster(industry)
	if ferr != nil || len(roster) == 0 {
		if ferr != nil {
			s.Logger.Warning("Roster fetch failed for %s industry metrics: %v", industry, ferr)
		}
		return nil, helpers.ErrNotFound
	}

	derived := deriveIndustryMetrics(industry, roster, s.Source.Name())
	if serr := s.Durable.SaveIndustryData(*derived); serr != nil {
		s.Logger.Warning("Failed to persist industry data for %s: %v", industry, serr)
	}
	return derived, nil
}

// -----------------------------------------------------------------------------

// deriveIndustryMetrics aggregates a roster into industry-level figures.
// Market cap is summed over the companies that report one.
func deriveIndustryMetrics(industry string, roster []models.MCompany, source string) *models.MIndustryData {
	count := len(roster)
	out := &models.MIndustryData{
		Industry:     industry,
		DataType:     "derived",
		CompanyCount: &count,
		Source:       source,
		UpdatedAt:    time.Now(),
	}

	var capSum float64
	var capN int
	for _, c := range roster {
		if c.MarketCap != nil {
			capSum += *c.MarketCap
			capN++
		}
	}
	if capN > 0 {
		out.MarketSize = &capSum
	}
	return out
}
