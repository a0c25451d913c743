package interfaces

import "industry-analyze/src/models"

// -----------------------------------------------------------------------------
// IDurableStore is the long-lived local store beneath the cache: canonical
// company, financial and industry records that survive cache clears and
// back the realtime retriever's last fallback tier.
// -----------------------------------------------------------------------------

type IDurableStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the schema. Unlike a scratch table it must keep
	// existing rows across restarts.
	Initialize() error

	// -----------------------------------------------------------------------------

	SaveCompany(c models.MCompany) error
	GetCompany(code string) (*models.MCompany, error)
	GetCompaniesByIndustry(industry string) ([]models.MCompany, error)
	ListCompanies() ([]models.MCompany, error)
	DeleteCompany(code string) (bool, error)

	// -----------------------------------------------------------------------------

	SaveFinancialRecord(code string, rec models.MFinancialRecord) error
	GetFinancialRecords(code string) ([]models.MFinancialRecord, error)

	// -----------------------------------------------------------------------------

	SaveIndustryData(d models.MIndustryData) error
	GetIndustryData(industry string) (*models.MIndustryData, error)
	ListIndustries() ([]string, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
