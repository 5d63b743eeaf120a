package models

import "time"

// ExitReason explains why a simulated trade was closed.
type ExitReason string

const (
	ExitTarget ExitReason = "Target"
	ExitStop   ExitReason = "Stop"
	ExitSignal ExitReason = "Signal"
	ExitOpen   ExitReason = "Open" // still holding at window end
)

// PositionStatus is the simulator's state at the end of the window.
type PositionStatus string

const (
	StatusLong PositionStatus = "Long"
	StatusCash PositionStatus = "Cash"
)

// BacktestTrade is one simulated long trade.
type BacktestTrade struct {
	EntryDate  time.Time  `json:"entry_date"`
	EntryPrice float64    `json:"entry_price"`
	ExitDate   time.Time  `json:"exit_date,omitempty"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
	PnLPct     float64    `json:"pnl_pct"`
	Reason     ExitReason `json:"reason"`
	Type       string     `json:"type"` // always "Long"
}

// EquityPoint is one bar of the simulated equity curve.
type EquityPoint struct {
	Date        time.Time `json:"date"`
	Equity      float64   `json:"equity"`
	BuyHold     float64   `json:"buy_hold,omitempty"`
	IsEntry     bool      `json:"is_entry,omitempty"`
	IsPrime     bool      `json:"is_prime,omitempty"`
	EntryReason string    `json:"entry_reason,omitempty"`
}

// BacktestResult summarizes a single-position backtest over the lookback
// window, compared against buy-and-hold.
type BacktestResult struct {
	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	WinRate       float64         `json:"win_rate"`      // percent
	TotalReturn   float64         `json:"total_return"`  // strategy, percent
	ActualReturn  float64         `json:"actual_return"` // buy-and-hold, percent
	AlphaReturn   float64         `json:"alpha_return"`  // strategy minus buy-and-hold
	MaxDrawdownPct float64        `json:"max_drawdown_pct"`
	ProfitFactor  float64         `json:"profit_factor"`
	AvgWinPct     float64         `json:"avg_win_pct"`
	AvgLossPct    float64         `json:"avg_loss_pct"`
	Trades        []BacktestTrade `json:"trades"`
	EquityCurve   []EquityPoint   `json:"equity_curve"`
	CurrentStatus PositionStatus  `json:"current_status"`
}
