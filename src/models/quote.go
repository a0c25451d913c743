package models

import "time"

// -----------------------------------------------------------------------------
// Realtime quote
// -----------------------------------------------------------------------------

// MRealtimeQuote is a point-in-time snapshot for one symbol. It has no date
// axis: each refresh replaces the cached value wholesale.
type MRealtimeQuote struct {
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	CurrentPrice  *float64  `json:"current_price"`
	ChangePercent *float64  `json:"change_percent"`
	Volume        *float64  `json:"volume"`
	Turnover      *float64  `json:"turnover"`
	MarketCap     *float64  `json:"market_cap"`
	PERatio       *float64  `json:"pe_ratio"`
	PBRatio       *float64  `json:"pb_ratio"`
	Industry      string    `json:"industry,omitempty"`
	Market        string    `json:"market,omitempty"`
	Source        string    `json:"source"`
	UpdateTime    time.Time `json:"update_time"`
}

// -----------------------------------------------------------------------------
// Websocket payloads
// -----------------------------------------------------------------------------

type MQuoteUpdate struct {
	Type      string                    `json:"type"` // "INITIAL" or "UPDATE"
	Quotes    map[string]MRealtimeQuote `json:"quotes"`
	Timestamp int64                     `json:"timestamp"`
}

type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}
