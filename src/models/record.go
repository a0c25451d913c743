package models

// -----------------------------------------------------------------------------
// Historical record types
// -----------------------------------------------------------------------------

// DateLayout is the calendar-day key format used throughout the cache layer.
const DateLayout = "2006-01-02"

// MDatedRecord is a single trading day of a historical series.
// Numeric fields are pointers: a provider may omit any of them, and an
// absent value must survive the merge as absent, never as zero.
type MDatedRecord struct {
	Date          string   `json:"date"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Close         *float64 `json:"close"`
	Volume        *float64 `json:"volume"`
	Turnover      *float64 `json:"turnover"`
	Amplitude     *float64 `json:"amplitude"`
	ChangePercent *float64 `json:"change_percent"`
	ChangeAmount  *float64 `json:"change_amount"`
	TurnoverRate  *float64 `json:"turnover_rate"`
}

// -----------------------------------------------------------------------------

type MDateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
