package models

import "time"

// MCompany is the durable canonical record for a listed company. It is the
// fallback tier beneath the short-TTL quote cache.
type MCompany struct {
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	Market        string    `json:"market"`
	CurrentPrice  *float64  `json:"current_price,omitempty"`
	ChangePercent *float64  `json:"change_percent,omitempty"`
	MarketCap     *float64  `json:"market_cap,omitempty"`
	Source        string    `json:"source"`
	UpdatedAt     time.Time `json:"updated_at"`
}
