package models

import "time"

// MIndustryData holds aggregate metrics for one industry.
type MIndustryData struct {
	Industry     string    `json:"industry"`
	DataType     string    `json:"data_type"`
	MarketSize   *float64  `json:"market_size"`
	GrowthRate   *float64  `json:"growth_rate"`
	CompanyCount *int      `json:"company_count"`
	AvgPE        *float64  `json:"avg_pe"`
	Description  string    `json:"description"`
	Source       string    `json:"source"`
	UpdatedAt    time.Time `json:"updated_at"`
}
