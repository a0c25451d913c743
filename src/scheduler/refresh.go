package scheduler

import (
	"time"

	"industry-analyze/src/logger"
	"industry-analyze/src/models"
	"industry-analyze/src/service"
	"industry-analyze/src/utils"

	"github.com/robfig/cron/v3"
)

// -----------------------------------------------------------------------------
// QuoteRefresher
// -----------------------------------------------------------------------------

// Broadcaster receives refreshed quotes, typically the websocket hub.
type Broadcaster interface {
	Broadcast(quotes map[string]models.MRealtimeQuote)
}

// QuoteRefresher periodically refreshes the watched symbols through the
// realtime service (warming the quote cache) and pushes the results to the
// broadcaster. Runs only while at least one watched market is open.
type QuoteRefresher struct {
	Config   models.MSchedulerConfig
	Realtime *service.RealtimeService
	Sink     Broadcaster
	Logger   *logger.Logger

	cron      *cron.Cron
	calendars map[string]*utils.TradingCalendar
}

// -----------------------------------------------------------------------------

func NewQuoteRefresher(cfg models.MSchedulerConfig, realtime *service.RealtimeService, sink Broadcaster) *QuoteRefresher {
	calendars := make(map[string]*utils.TradingCalendar, len(cfg.WatchSymbols))
	for _, sym := range cfg.WatchSymbols {
		calendars[sym] = utils.GetCalendar(sym)
	}

	return &QuoteRefresher{
		Config:    cfg,
		Realtime:  realtime,
		Sink:      sink,
		Logger:    logger.NewLogger("QuoteRefresher"),
		cron:      cron.New(),
		calendars: calendars,
	}
}

// -----------------------------------------------------------------------------

func (r *QuoteRefresher) Start() error {
	if !r.Config.Enabled || len(r.Config.WatchSymbols) == 0 {
		r.Logger.Info("Scheduler disabled, no periodic refresh")
		return nil
	}

	if _, err := r.cron.AddFunc(r.Config.CronSpec, r.refresh); err != nil {
		return err
	}

	r.cron.Start()
	r.Logger.Info("Scheduled quote refresh (%s) for %d symbols", r.Config.CronSpec, len(r.Config.WatchSymbols))
	return nil
}

// -----------------------------------------------------------------------------

func (r *QuoteRefresher) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// -----------------------------------------------------------------------------

func (r *QuoteRefresher) refresh() {
	now := time.Now()
	quotes := make(map[string]models.MRealtimeQuote)

	for _, sym := range r.Config.WatchSymbols {
		if cal := r.calendars[sym]; cal != nil && !cal.IsOpenOnMinute(now) {
			continue
		}

		// Force a live fetch so the broadcast always carries current prices.
		quote, err := r.Realtime.GetStockRealtime(sym, true)
		if err != nil {
			r.Logger.Warning("Refresh failed for %s: %v", sym, err)
			continue
		}
		quotes[sym] = *quote
	}

	if len(quotes) == 0 {
		return
	}

	r.Logger.Info("Refreshed %d/%d watched symbols", len(quotes), len(r.Config.WatchSymbols))
	if r.Sink != nil {
		r.Sink.Broadcast(quotes)
	}
}
