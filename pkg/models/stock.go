// Package models defines the core data structures used throughout StockPulse.
package models

import "time"

// OHLCV represents a single candlestick bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	VWAP      float64   `json:"vwap,omitempty"`
}

// Quote represents a point-in-time stock quote.
type Quote struct {
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name"`
	LastPrice     float64   `json:"last_price"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"market_cap"`
	WeekHigh52    float64   `json:"week_high_52"`
	WeekLow52     float64   `json:"week_low_52"`
	SMA150        float64   `json:"sma_150,omitempty"` // exchange-supplied, preferred over local computation
	Timestamp     time.Time `json:"timestamp"`
}

// CompanyProfile holds descriptive company data attached to an analysis
// after the fact (never computed by the engine itself).
type CompanyProfile struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Website  string `json:"website,omitempty"`
}

// Timeframe represents chart timeframe for OHLCV data.
type Timeframe string

const (
	Timeframe1Day  Timeframe = "1d"
	Timeframe1Week Timeframe = "1w"
	Timeframe1Mon  Timeframe = "1M"
)

// TickerMatch is one candidate result of a free-text ticker search.
type TickerMatch struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}

// NewsItem is a single market news headline.
type NewsItem struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}
