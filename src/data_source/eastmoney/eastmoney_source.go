package eastmoney

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"industry-analyze/src/cache"
	"industry-analyze/src/helpers"
	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

const (
	klineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	spotURL  = "https://push2.eastmoney.com/api/qt/clist/get"
)

// period name -> eastmoney klt code
var kltByPeriod = map[string]string{
	"daily":   "101",
	"weekly":  "102",
	"monthly": "103",
}

// -----------------------------------------------------------------------------
// EastmoneySource
// -----------------------------------------------------------------------------

// EastmoneySource fetches A-share data from the eastmoney push2 endpoints.
// Spot quotes come from the full market table, which is fetched at most
// once per snapshot window and then answered from memory: one table fetch
// serves every symbol and every industry roster lookup in that window.
type EastmoneySource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger

	spotWindow  time.Duration
	spotMu      sync.Mutex
	spotRows    []spotRow
	spotFetched time.Time
}

// -----------------------------------------------------------------------------

func NewEastmoneySource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager, fresh cache.FreshnessPolicy) *EastmoneySource {
	return &EastmoneySource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger("EastmoneySource-" + sourceCfg.Name),
		spotWindow:   fresh.Spot,
	}
}

// -----------------------------------------------------------------------------

func (s *EastmoneySource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// secID maps a bare A-share code to eastmoney's exchange-qualified id.
// Shanghai codes start with 6, everything else is Shenzhen.
func secID(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}

// -----------------------------------------------------------------------------

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// -----------------------------------------------------------------------------

// FetchRange retrieves kline rows for [start, end] inclusive.
func (s *EastmoneySource) FetchRange(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
	klt, ok := kltByPeriod[period]
	if !ok {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchRange", Cause: fmt.Errorf("unsupported period %q", period)}
	}

	params := map[string]string{
		"secid":   secID(symbol),
		"klt":     klt,
		"fqt":     "1",
		"beg":     start.Format("20060102"),
		"end":     end.Format("20060102"),
		"fields1": "f1,f2,f3,f4,f5,f6",
		"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
	}

	body, err := s.Network.Get(klineURL, params)
	if err != nil {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchRange", Cause: err}
	}

	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchRange", Cause: err}
	}
	if resp.Data == nil {
		// Unknown symbol or no data in range; not an error.
		return nil, nil
	}

	records := make([]models.MDatedRecord, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		rec, ok := parseKline(line)
		if !ok {
			s.Logger.Warning("Skipping malformed kline row for %s: %q", symbol, line)
			continue
		}
		records = append(records, rec)
	}

	s.Logger.Info("Fetched %s (%s): %d rows %s..%s", symbol, period, len(records),
		start.Format(models.DateLayout), end.Format(models.DateLayout))
	return records, nil
}

// -----------------------------------------------------------------------------

// parseKline splits one comma-joined kline row. Field order follows the
// fields2 request: date, open, close, high, low, volume, turnover,
// amplitude, change pct, change amount, turnover rate.
func parseKline(line string) (models.MDatedRecord, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 11 {
		return models.MDatedRecord{}, false
	}

	return models.MDatedRecord{
		Date:          parts[0],
		Open:          parseFloat(parts[1]),
		Close:         parseFloat(parts[2]),
		High:          parseFloat(parts[3]),
		Low:           parseFloat(parts[4]),
		Volume:        parseFloat(parts[5]),
		Turnover:      parseFloat(parts[6]),
		Amplitude:     parseFloat(parts[7]),
		ChangePercent: parseFloat(parts[8]),
		ChangeAmount:  parseFloat(parts[9]),
		TurnoverRate:  parseFloat(parts[10]),
	}, true
}

// -----------------------------------------------------------------------------

// parseFloat maps eastmoney's "-" placeholder (and anything unparsable) to
// a missing value.
func parseFloat(s string) *float64 {
	if s == "" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// -----------------------------------------------------------------------------
// Spot table
// -----------------------------------------------------------------------------

// spotRow is one row of the full market table. Numeric fields arrive as
// JSON numbers when present and as the string "-" when not, hence the
// RawMessage indirection.
type spotRow struct {
	Price         json.RawMessage `json:"f2"`
	ChangePercent json.RawMessage `json:"f3"`
	Volume        json.RawMessage `json:"f5"`
	Turnover      json.RawMessage `json:"f6"`
	PERatio       json.RawMessage `json:"f9"`
	Code          string          `json:"f12"`
	Name          string          `json:"f14"`
	MarketCap     json.RawMessage `json:"f20"`
	PBRatio       json.RawMessage `json:"f23"`
	Industry      string          `json:"f100"`
}

type spotResponse struct {
	Data *struct {
		Total int       `json:"total"`
		Diff  []spotRow `json:"diff"`
	} `json:"data"`
}

// -----------------------------------------------------------------------------

func rawFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

// -----------------------------------------------------------------------------

// snapshot returns the current market table, refetching only when the held
// copy is older than the snapshot window.
func (s *EastmoneySource) snapshot() ([]spotRow, error) {
	s.spotMu.Lock()
	defer s.spotMu.Unlock()

	if s.spotRows != nil && time.Since(s.spotFetched) < s.spotWindow {
		return s.spotRows, nil
	}

	params := map[string]string{
		"pn":     "1",
		"pz":     "6000",
		"po":     "1",
		"np":     "1",
		"fltt":   "2",
		"invt":   "2",
		"fid":    "f3",
		"fs":     "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23",
		"fields": "f2,f3,f5,f6,f9,f12,f14,f20,f23,f100",
	}

	body, err := s.Network.Get(spotURL, params)
	if err != nil {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchSpot", Cause: err}
	}

	var resp spotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchSpot", Cause: err}
	}
	if resp.Data == nil || len(resp.Data.Diff) == 0 {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchSpot", Cause: fmt.Errorf("empty market table")}
	}

	s.spotRows = resp.Data.Diff
	s.spotFetched = time.Now()
	s.Logger.Info("Refreshed market table: %d rows", len(s.spotRows))
	return s.spotRows, nil
}

// -----------------------------------------------------------------------------

func marketFor(code string) string {
	if strings.HasPrefix(code, "6") {
		return "SH"
	}
	return "SZ"
}

// -----------------------------------------------------------------------------

// FetchSpot looks a symbol up in the market table snapshot.
func (s *EastmoneySource) FetchSpot(symbol string) (*models.MRealtimeQuote, error) {
	rows, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.Code != symbol {
			continue
		}
		return &models.MRealtimeQuote{
			Code:          row.Code,
			Name:          row.Name,
			CurrentPrice:  rawFloat(row.Price),
			ChangePercent: rawFloat(row.ChangePercent),
			Volume:        rawFloat(row.Volume),
			Turnover:      rawFloat(row.Turnover),
			MarketCap:     rawFloat(row.MarketCap),
			PERatio:       rawFloat(row.PERatio),
			PBRatio:       rawFloat(row.PBRatio),
			Industry:      row.Industry,
			Market:        marketFor(row.Code),
			Source:        s.Name(),
			UpdateTime:    time.Now(),
		}, nil
	}
	return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchSpot", Cause: fmt.Errorf("symbol %s not in market table", symbol)}
}

// -----------------------------------------------------------------------------

// FetchIndustryRoster filters the market table by exact industry name,
// falling back to a name-keyword match so queries like "银行" still work
// when the provider labels the sector differently.
func (s *EastmoneySource) FetchIndustryRoster(industry string) ([]models.MCompany, error) {
	rows, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var companies []models.MCompany
	for _, row := range rows {
		if row.Industry != industry && !strings.Contains(row.Name, industry) {
			continue
		}
		companies = append(companies, models.MCompany{
			Code:          row.Code,
			Name:          row.Name,
			Industry:      industry,
			Market:        marketFor(row.Code),
			CurrentPrice:  rawFloat(row.Price),
			ChangePercent: rawFloat(row.ChangePercent),
			MarketCap:     rawFloat(row.MarketCap),
			Source:        s.Name(),
			UpdatedAt:     now,
		})
	}

	s.Logger.Info("Industry %q matched %d companies", industry, len(companies))
	return companies, nil
}

// -----------------------------------------------------------------------------

// FetchFinancials is not served by the push2 endpoints.
func (s *EastmoneySource) FetchFinancials(symbol string) ([]models.MFinancialRecord, error) {
	return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchFinancials", Cause: fmt.Errorf("not supported")}
}
