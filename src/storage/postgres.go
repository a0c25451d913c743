package storage

import (
	"database/sql"
	"fmt"

	"industry-analyze/src/logger"
	"industry-analyze/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS companies (
			code TEXT PRIMARY KEY,
			name TEXT,
			industry TEXT,
			market TEXT,
			current_price DOUBLE PRECISION,
			change_percent DOUBLE PRECISION,
			market_cap DOUBLE PRECISION,
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
			revenue DOUBLE PRECISION,
			net_profit DOUBLE PRECISION,
			total_assets DOUBLE PRECISION,
			total_liabilities DOUBLE PRECISION,
			operating_cash_flow DOUBLE PRECISION,
			source TEXT,
			updated_at TIMESTAMP,
			PRIMARY KEY (code, report_date, data_type)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS industry_data (
			industry TEXT PRIMARY KEY,
			data_type TEXT,
			market_size DOUBLE PRECISION,
			growth_rate DOUBLE PRECISION,
			company_count INTEGER,
			avg_pe DOUBLE PRECISION,
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

func (d *PostgresDB) SaveCompany(c models.MCompany) error {
	query := `
		INSERT INTO companies (code, name, industry, market, current_price, change_percent, market_cap, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			industry = EXCLUDED.industry,
			market = EXCLUDED.market,
			current_price = EXCLUDED.current_price,
			change_percent = EXCLUDED.change_percent,
			market_cap = EXCLUDED.market_cap,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`
	_, err := d.DB.Exec(query, c.Code, c.Name, c.Industry, c.Market, c.CurrentPrice, c.ChangePercent, c.MarketCap, c.Source, c.UpdatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetCompany(code string) (*models.MCompany, error) {
	row := d.DB.QueryRow("SELECT "+companyColumns+" FROM companies WHERE code = $1", code)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) queryCompanies(query string, args ...interface{}) ([]models.MCompany, error) {
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

func (d *PostgresDB) GetCompaniesByIndustry(industry string) ([]models.MCompany, error) {
	return d.queryCompanies("SELECT "+companyColumns+" FROM companies WHERE industry = $1 ORDER BY code", industry)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListCompanies() ([]models.MCompany, error) {
	return d.queryCompanies("SELECT " + companyColumns + " FROM companies ORDER BY code")
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) DeleteCompany(code string) (bool, error) {
	res, err := d.DB.Exec("DELETE FROM companies WHERE code = $1", code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveFinancialRecord(code string, rec models.MFinancialRecord) error {
	query := `
		INSERT INTO financial_records (code, report_date, data_type, revenue, net_profit, total_assets, total_liabilities, operating_cash_flow, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code, report_date, data_type) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			net_profit = EXCLUDED.net_profit,
			total_assets = EXCLUDED.total_assets,
			total_liabilities = EXCLUDED.total_liabilities,
			operating_cash_flow = EXCLUDED.operating_cash_flow,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`
	_, err := d.DB.Exec(query, code, rec.ReportDate, rec.DataType, rec.Revenue, rec.NetProfit, rec.TotalAssets, rec.TotalLiabilities, rec.OperatingCashFlow, rec.Source, rec.UpdatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetFinancialRecords(code string) ([]models.MFinancialRecord, error) {
	rows, err := d.DB.Query(`
		SELECT report_date, data_type, revenue, net_profit, total_assets, total_liabilities, operating_cash_flow, source, updated_at
		FROM financial_records WHERE code = $1 ORDER BY report_date DESC
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

func (d *PostgresDB) SaveIndustryData(data models.MIndustryData) error {
	query := `
		INSERT INTO industry_data (industry, data_type, market_size, growth_rate, company_count, avg_pe, description, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (industry) DO UPDATE SET
			data_type = EXCLUDED.data_type,
			market_size = EXCLUDED.market_size,
			growth_rate = EXCLUDED.growth_rate,
			company_count = EXCLUDED.company_count,
			avg_pe = EXCLUDED.avg_pe,
			description = EXCLUDED.description,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`
	_, err := d.DB.Exec(query, data.Industry, data.DataType, data.MarketSize, data.GrowthRate, data.CompanyCount, data.AvgPE, data.Description, data.Source, data.UpdatedAt)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetIndustryData(industry string) (*models.MIndustryData, error) {
	var data models.MIndustryData
	err := d.DB.QueryRow(`
		SELECT industry, data_type, market_size, growth_rate, company_count, avg_pe, description, source, updated_at
		FROM industry_data WHERE industry = $1
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

func (d *PostgresDB) ListIndustries() ([]string, error) {
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

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
