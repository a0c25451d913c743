package storage

import (
	"database/sql"
	"fmt"

	"industry-analyze/src/logger"
	"industry-analyze/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables builds the schema. The durable store is a fallback tier, so
// unlike scratch tables it must keep existing rows across restarts.
func (d *SQLiteDB) createTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS companies (
			code TEXT PRIMARY KEY,
			name TEXT,
			industry TEXT,
			market TEXT,
			current_price REAL,
			change_percent REAL,
			market_cap REAL,
			source TEXT,
			updated_at TIMESTAMP
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_companies_industry ON companies (industry);`,
		`
		CREATE TABLE IF NOT EXISTS financial_records (
			code TEXT,
			report_date TEXT,
			data_type TEXT,
			revenue REAL,
			net_profit REAL,
			total_assets REAL,
			total_liabilities REAL,
			operating_cash_flow REAL,
			source TEXT,
			updated_at TIMESTAMP,
			PRIMARY KEY (code, report_date, data_type)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS industry_data (
			industry TEXT PRIMARY KEY,
			data_type TEXT,
			market_size REAL,
			growth_rate REAL,
			company_count INTEGER,
			avg_pe REAL,
			description TEXT,
			source TEXT,
			updated_at TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveCompany(c models.MCompany) error {
	query := `
		INSERT INTO companies (code, name, industry, market, current_price, change_percent, market_cap, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			market = excluded.market,
			current_price = excluded.current_price,
			change_percent = excluded.change_percent,
			market_cap = excluded.market_cap,
			source = excluded.source,
			updated_at = excluded.updated_at
	`
	_, err := d.DB.Exec(query, c.Code, c.Name, c.Industry, c.Market, c.CurrentPrice, c.ChangePercent, c.MarketCap, c.Source, c.UpdatedAt)
	return err
}

// -----------------------------------------------------------------------------

func scanCompany(row interface{ Scan(...interface{}) error }) (*models.MCompany, error) {
	var c models.MCompany
	err := row.Scan(&c.Code, &c.Name, &c.Industry, &c.Market, &c.CurrentPrice, &c.ChangePercent, &c.MarketCap, &c.Source, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const companyColumns = "code, name, industry, market, current_price, change_percent, market_cap, source, updated_at"

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetCompany(code string) (*models.MCompany, error) {
	row := d.DB.QueryRow("SELECT "+companyColumns+" FROM companies WHERE code = ?", code)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) queryCompanies(query string, args ...interface{}) ([]models.MCompany, error) {
	rows, err := d.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.MCompany
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	return companies, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetCompaniesByIndustry(industry string) ([]models.MCompany, error) {
	return d.queryCompanies("SELECT "+companyColumns+" FROM companies WHERE industry = ? ORDER BY code", industry)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListCompanies() ([]models.MCompany, error) {
	return d.queryCompanies("SELECT " + companyColumns + " FROM companies ORDER BY code")
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) DeleteCompany(code string) (bool, error) {
	res, err := d.DB.Exec("DELETE FROM companies WHERE code = ?", code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveFinancialRecord(code string, rec models.MFinancialRecord) error {
	query := `
		INSERT INTO financial_records (code, report_date, data_type, revenue, net_profit, total_assets, total_liabilities, operating_cash_flow, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code, report_date, data_type) DO UPDATE SET
			revenue = excluded.revenue,
			net_profit = excluded.net_profit,
			total_assets = excluded.total_assets,
			total_liabilities = excluded.total_liabilities,
			operating_cash_flow = excluded.operating_cash_flow,
			source = excluded.source,
			updated_at = excluded.updated_at
	`
	_, err := d.DB.Exec(query, code, rec.ReportDate, rec.DataType, rec.Revenue, rec.NetProfit, rec.TotalAssets, rec.TotalLiabilities, rec.OperatingCashFlow, rec.Source, rec.UpdatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetFinancialRecords(code string) ([]models.MFinancialRecord, error) {
	rows, err := d.DB.Query(`
		SELECT report_date, data_type, revenue, net_profit, total_assets, total_liabilities, operating_cash_flow, source, updated_at
		FROM financial_records WHERE code = ? ORDER BY report_date DESC
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MFinancialRecord
	for rows.Next() {
		var r models.MFinancialRecord
		if err := rows.Scan(&r.ReportDate, &r.DataType, &r.Revenue, &r.NetProfit, &r.TotalAssets, &r.TotalLiabilities, &r.OperatingCashFlow, &r.Source, &r.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveIndustryData(data models.MIndustryData) error {
	query := `
		INSERT INTO industry_data (industry, data_type, market_size, growth_rate, company_count, avg_pe, description, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (industry) DO UPDATE SET
			data_type = excluded.data_type,
			market_size = excluded.market_size,
			growth_rate = excluded.growth_rate,
			company_count = excluded.company_count,
			avg_pe = excluded.avg_pe,
			description = excluded.description,
			source = excluded.source,
			updated_at = excluded.updated_at
	`
	_, err := d.DB.Exec(query, data.Industry, data.DataType, data.MarketSize, data.GrowthRate, data.CompanyCount, data.AvgPE, data.Description, data.Source, data.UpdatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetIndustryData(industry string) (*models.MIndustryData, error) {
	var data models.MIndustryData
	err := d.DB.QueryRow(`
		SELECT industry, data_type, market_size, growth_rate, company_count, avg_pe, description, source, updated_at
		FROM industry_data WHERE industry = ?
	`, industry).Scan(&data.Industry, &data.DataType, &data.MarketSize, &data.GrowthRate, &data.CompanyCount, &data.AvgPE, &data.Description, &data.Source, &data.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListIndustries() ([]string, error) {
	rows, err := d.DB.Query("SELECT industry FROM industry_data ORDER BY industry")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var industries []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		industries = append(industries, name)
	}
	return industries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
