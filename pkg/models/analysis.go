package models

import "time"

// WeeklyTrend classifies the weekly price trend.
type WeeklyTrend string

const (
	WeeklyBullish WeeklyTrend = "BULLISH"
	WeeklyBearish WeeklyTrend = "BEARISH"
)

// Divergence classifies an RSI/price divergence. Empty means none detected.
type Divergence string

const (
	DivergenceBullish Divergence = "BULLISH"
	DivergenceBearish Divergence = "BEARISH"
	DivergenceNone    Divergence = ""
)

// Recommendation represents the final recommendation tier for a stock.
type Recommendation string

const (
	StrongBuy Recommendation = "STRONG_BUY"
	Buy       Recommendation = "BUY"
	Hold      Recommendation = "HOLD"
	Sell      Recommendation = "SELL"
)

// IndicatorScore is one factor's contribution to the composite score.
// Weights across all indicators of a single analysis sum to 1.0.
type IndicatorScore struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`  // 0–10
	Weight      float64 `json:"weight"` // 0–1
	Value       string  `json:"value"`  // display value, e.g. "RSI 62.3"
	Description string  `json:"description"`
	Bullish     bool    `json:"bullish"`
	Explanation string  `json:"explanation"`
}

// MACDData contains MACD indicator values.
type MACDData struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BandData contains upper/middle/lower channel values, used for both
// Bollinger Bands and Keltner Channels.
type BandData struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// TechnicalSnapshot is the full set of computed indicator values at one
// point in time.
type TechnicalSnapshot struct {
	RSI              float64     `json:"rsi"`
	SMA150           float64     `json:"sma_150"`
	VWMA             float64     `json:"vwma"`
	MACD             MACDData    `json:"macd"`
	ADX              float64     `json:"adx"` // placeholder, not computed from data
	Bollinger        BandData    `json:"bollinger"`
	Keltner          BandData    `json:"keltner"`
	SqueezeOn        bool        `json:"squeeze_on"`
	RSIDivergence    Divergence  `json:"rsi_divergence,omitempty"`
	RelativeStrength float64     `json:"relative_strength"`
	ATR              float64     `json:"atr"`
	VolumeAvg20      float64     `json:"volume_avg_20"`
	LastVolume       int64       `json:"last_volume"`
	Support          float64     `json:"support"`
	Resistance       float64     `json:"resistance"`
	IsCupHandle      bool        `json:"is_cup_handle"`
	WeeklyTrend      WeeklyTrend `json:"weekly_trend"`
}

// RiskPlan describes a suggested entry with stop and target derived from
// the Bollinger middle band and ATR multiples.
type RiskPlan struct {
	EntryPrice   float64 `json:"entry_price"`
	StopLoss     float64 `json:"stop_loss"`
	TakeProfit   float64 `json:"take_profit"`
	RiskReward   float64 `json:"risk_reward"`
	Thesis       string  `json:"thesis"`
	EntrySource  string  `json:"entry_source"`
	StopSource   string  `json:"stop_source"`
	TargetSource string  `json:"target_source"`
}

// AnalysisResult is the full output of one analyzer call. It is created
// fresh per call and never mutated by the engine; callers may attach
// CompanyName/Sector afterward.
type AnalysisResult struct {
	Ticker        string            `json:"ticker"`
	CompanyName   string            `json:"company_name,omitempty"`
	Sector        string            `json:"sector,omitempty"`
	CurrentPrice  float64           `json:"current_price"`
	ChangePercent float64           `json:"change_percent"`
	MarketCap     float64           `json:"market_cap,omitempty"`
	TotalScore    float64           `json:"total_score"` // 0–10, one decimal
	Recommendation Recommendation   `json:"recommendation"`
	Indicators    []IndicatorScore  `json:"indicators"`
	TechnicalData TechnicalSnapshot `json:"technical_data"`
	RiskPlan      RiskPlan          `json:"risk_plan"`
	History       []OHLCV           `json:"history,omitempty"`
	ScoreHistory  []float64         `json:"score_history"` // up to 7 trailing points
	IsPrimeSetup  bool              `json:"is_prime_setup"`
	IsTrendEntry  bool              `json:"is_trend_entry"`
	Backtest      *BacktestResult   `json:"backtest,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}
