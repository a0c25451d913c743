package interfaces

import (
	"time"

	"industry-analyze/src/models"
)

// -----------------------------------------------------------------------------
// IDataSource is the remote fetch adapter boundary. Implementations map
// provider rows to models; failures come back as *helpers.FetchError values
// for the orchestrators to branch on, never as panics.
// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchRange retrieves historical records for a symbol over an inclusive
	// date range. Non-trading days simply yield no row.
	FetchRange(symbol, period string, start, end time.Time) ([]models.MDatedRecord, error)

	// -----------------------------------------------------------------------------

	// FetchSpot retrieves a point-in-time quote for one symbol.
	FetchSpot(symbol string) (*models.MRealtimeQuote, error)

	// -----------------------------------------------------------------------------

	// FetchIndustryRoster retrieves the companies currently matching an
	// industry name.
	FetchIndustryRoster(industry string) ([]models.MCompany, error)

	// -----------------------------------------------------------------------------

	// FetchFinancials retrieves reporting-period fundamentals for a company.
	FetchFinancials(symbol string) ([]models.MFinancialRecord, error)
}
