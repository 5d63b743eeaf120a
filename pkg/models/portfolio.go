package models

import "time"

// Position is a user-held position tracked in the portfolio.
type Position struct {
	Ticker        string    `json:"ticker"`
	AvgEntryPrice float64   `json:"avg_entry_price"`
	Quantity      float64   `json:"quantity"`
	EntryDate     time.Time `json:"entry_date"`
	Notes         string    `json:"notes,omitempty"`
}

// AdviceAction is the discrete recommended action for an open position.
type AdviceAction string

const (
	ActionHold       AdviceAction = "HOLD"
	ActionBuyMore    AdviceAction = "BUY MORE"
	ActionSellTrim   AdviceAction = "SELL/TRIM"
	ActionCutLoss    AdviceAction = "CUT LOSS"
	ActionTakeProfit AdviceAction = "TAKE PROFIT"
)

// TradeAdvice is the advisor's output for one position. Derived on demand,
// never persisted.
type TradeAdvice struct {
	Action          AdviceAction `json:"action"`
	Reason          string       `json:"reason"`
	SuggestedStop   float64      `json:"suggested_stop"`
	SuggestedTarget float64      `json:"suggested_target"`
	PnLPercentage   float64      `json:"pnl_percentage"`
}
