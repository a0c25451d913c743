package yahoo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"industry-analyze/src/helpers"
	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

const chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

// period name -> yahoo chart interval
var intervalByPeriod = map[string]string{
	"daily":   "1d",
	"weekly":  "1wk",
	"monthly": "1mo",
}

// -----------------------------------------------------------------------------
// YahooFinanceSource
// -----------------------------------------------------------------------------

// YahooFinanceSource fetches from the yahoo chart API. It covers historical
// ranges and single-symbol spot quotes; industry rosters and fundamentals
// are not part of the chart API and report as unsupported.
type YahooFinanceSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *YahooFinanceSource {
	return &YahooFinanceSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger("YahooFinanceSource-" + sourceCfg.Name),
	}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				ExchangeName       string  `json:"exchangeName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) fetchChart(symbol string, params map[string]string) (*chartResponse, error) {
	body, err := s.Network.Get(fmt.Sprintf(chartURL, symbol), params)
	if err != nil {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "fetchChart", Cause: err}
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "fetchChart", Cause: err}
	}
	if resp.Chart.Error != nil {
		return nil, &helpers.FetchError{
			Source: s.Name(),
			Op:     "fetchChart",
			Cause:  fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description),
		}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "fetchChart", Cause: fmt.Errorf("no result for %s", symbol)}
	}
	return &resp, nil
}

// -----------------------------------------------------------------------------

// FetchRange retrieves chart bars for [start, end] inclusive.
func (s *YahooFinanceSource) FetchRange(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
	interval, ok := intervalByPeriod[period]
	if !ok {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchRange", Cause: fmt.Errorf("unsupported period %q", period)}
	}

	resp, err := s.fetchChart(symbol, map[string]string{
		"interval":       interval,
		"period1":        strconv.FormatInt(start.Unix(), 10),
		"period2":        strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10), // period2 is exclusive
		"includePrePost": "false",
		"events":         "div,splits",
	})
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchRange", Cause: fmt.Errorf("no quote data for %s", symbol)}
	}

	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchRange", Cause: fmt.Errorf("data alignment error for %s", symbol)}
	}

	records := make([]models.MDatedRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		rec := models.MDatedRecord{
			Date:   time.Unix(ts, 0).UTC().Format(models.DateLayout),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		}
		if rec.Close == nil {
			// Null close means the bar never traded; skip it.
			continue
		}
		records = append(records, rec)
	}

	s.Logger.Info("Fetched %s (%s): %d rows", symbol, period, len(records))
	return records, nil
}

// -----------------------------------------------------------------------------

// at safely indexes a column that may be shorter than the timestamp axis.
func at(col []*float64, i int) *float64 {
	if i >= len(col) {
		return nil
	}
	return col[i]
}

// -----------------------------------------------------------------------------

// FetchSpot derives a quote from the chart meta block.
func (s *YahooFinanceSource) FetchSpot(symbol string) (*models.MRealtimeQuote, error) {
	resp, err := s.fetchChart(symbol, map[string]string{
		"interval": "1d",
		"range":    "1d",
	})
	if err != nil {
		return nil, err
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchSpot", Cause: fmt.Errorf("no market price for %s", symbol)}
	}

	price := meta.RegularMarketPrice
	quote := &models.MRealtimeQuote{
		Code:         symbol,
		Name:         meta.Symbol,
		CurrentPrice: &price,
		Market:       meta.ExchangeName,
		Source:       s.Name(),
		UpdateTime:   time.Now(),
	}
	if meta.ChartPreviousClose > 0 {
		pct := (price - meta.ChartPreviousClose) / meta.ChartPreviousClose * 100
		quote.ChangePercent = &pct
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) FetchIndustryRoster(industry string) ([]models.MCompany, error) {
	return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchIndustryRoster", Cause: fmt.Errorf("not supported")}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) FetchFinancials(symbol string) ([]models.MFinancialRecord, error) {
	return nil, &helpers.FetchError{Source: s.Name(), Op: "FetchFinancials", Cause: fmt.Errorf("not supported")}
}
