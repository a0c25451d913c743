package datasource

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"industry-analyze/src/interfaces"
	"industry-analyze/src/logger"
	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// SourceSelector
// -----------------------------------------------------------------------------

// SourceSelector holds the registered providers and delegates every fetch
// to the one currently selected. It implements IDataSource itself so the
// services never know which provider is live.
type SourceSelector struct {
	Logger *logger.Logger

	mu      sync.RWMutex
	sources map[string]interfaces.IDataSource
	active  string
}

// -----------------------------------------------------------------------------

// NewSourceSelector registers the given sources; the first one becomes
// active.
func NewSourceSelector(sources []interfaces.IDataSource, log *logger.Logger) *SourceSelector {
	sel := &SourceSelector{
		Logger:  log,
		sources: make(map[string]interfaces.IDataSource),
	}
	for _, s := range sources {
		sel.sources[s.Name()] = s
		if sel.active == "" {
			sel.active = s.Name()
		}
	}
	return sel
}

// -----------------------------------------------------------------------------

// Active returns the currently selected source.
func (m *SourceSelector) Active() interfaces.IDataSource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sources[m.active]
}

// -----------------------------------------------------------------------------

// Select switches the active source by name.
func (m *SourceSelector) Select(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}
	m.active = name
	m.Logger.Info("Active data source switched to %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// Status lists the registered source names plus which one is active.
func (m *SourceSelector) Status() (names []string, active string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name := range m.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, m.active
}

// -----------------------------------------------------------------------------
// IDataSource delegation
// -----------------------------------------------------------------------------

func (m *SourceSelector) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

func (m *SourceSelector) FetchRange(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error) {
	return m.Active().FetchRange(symbol, period, start, end)
}

func (m *SourceSelector) FetchSpot(symbol string) (*models.MRealtimeQuote, error) {
	return m.Active().FetchSpot(symbol)
}

func (m *SourceSelector) FetchIndustryRoster(industry string) ([]models.MCompany, error) {
	return m.Active().FetchIndustryRoster(industry)
}

func (m *SourceSelector) FetchFinancials(symbol string) ([]models.MFinancialRecord, error) {
	return m.Active().FetchFinancials(symbol)
}
