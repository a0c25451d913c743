package models

import "time"

// MFinancialRecord is one reporting period of company fundamentals.
type MFinancialRecord struct {
	ReportDate        string    `json:"report_date"`
	DataType          string    `json:"data_type"` // "annual" or "quarterly"
	Revenue           *float64  `json:"revenue"`
	NetProfit         *float64  `json:"net_profit"`
	TotalAssets       *float64  `json:"total_assets"`
	TotalLiabilities  *float64  `json:"total_liabilities"`
	OperatingCashFlow *float64  `json:"operating_cash_flow"`
	Source            string    `json:"source"`
	UpdatedAt         time.Time `json:"updated_at"`
}
