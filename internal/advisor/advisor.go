// Package advisor maps an analysis result and an open position to a
// discrete recommended action via a fixed, ordered rule table.
package advisor

import (
	"fmt"

	"github.com/seenimoa/stockpulse/pkg/models"
)

const (
	stopATRMult   = 2.2
	targetATRMult = 4.5

	// atrFallbackPct substitutes for ATR when the indicator is
	// unavailable, as a fraction of the current price.
	atrFallbackPct = 0.03
)

// rule is one row of the advice table. Rules are evaluated in order and
// the first match wins.
type rule struct {
	matches func(score, rsi, pnl float64, weekly models.WeeklyTrend) bool
	action  models.AdviceAction
	reason  string
}

var rules = []rule{
	{
		matches: func(score, rsi, pnl float64, weekly models.WeeklyTrend) bool {
			return score >= 8.5 && pnl > -3 && pnl < 10 && weekly == models.WeeklyBullish
		},
		action: models.ActionBuyMore,
		reason: "Elite score near the entry zone inside a weekly uptrend",
	},
	{
		matches: func(score, rsi, pnl float64, weekly models.WeeklyTrend) bool {
			return rsi > 75 && pnl > 15 && score < 8
		},
		action: models.ActionTakeProfit,
		reason: "Overbought exhaustion: extended RSI with a fading score",
	},
	{
		matches: func(score, rsi, pnl float64, weekly models.WeeklyTrend) bool {
			return score < 4.0 && pnl < 0
		},
		action: models.ActionCutLoss,
		reason: "Technical breakdown while the position is underwater",
	},
	{
		matches: func(score, rsi, pnl float64, weekly models.WeeklyTrend) bool {
			return pnl > 25
		},
		action: models.ActionTakeProfit,
		reason: "Parabolic extension: lock in outsized gains",
	},
	{
		matches: func(score, rsi, pnl float64, weekly models.WeeklyTrend) bool {
			return score < 3.5
		},
		action: models.ActionCutLoss,
		reason: "Structural failure in the technical picture",
	},
}

// Advise derives the recommended action for an existing position from the
// latest analysis. A position without a valid entry price yields a neutral
// HOLD placeholder.
func Advise(result *models.AnalysisResult, position models.Position) models.TradeAdvice {
	if result == nil || position.AvgEntryPrice <= 0 {
		return models.TradeAdvice{
			Action: models.ActionHold,
			Reason: "No valid entry price on record",
		}
	}

	price := result.CurrentPrice
	pnl := (price - position.AvgEntryPrice) / position.AvgEntryPrice * 100

	atr := result.TechnicalData.ATR
	if atr <= 0 {
		atr = price * atrFallbackPct
	}

	advice := models.TradeAdvice{
		Action:          models.ActionHold,
		Reason:          fmt.Sprintf("Position within plan at %+.1f%%, no rule triggered", pnl),
		SuggestedStop:   price - stopATRMult*atr,
		SuggestedTarget: price + targetATRMult*atr,
		PnLPercentage:   pnl,
	}

	score := result.TotalScore
	rsi := result.TechnicalData.RSI
	weekly := result.TechnicalData.WeeklyTrend
	for _, r := range rules {
		if r.matches(score, rsi, pnl, weekly) {
			advice.Action = r.action
			advice.Reason = r.reason
			break
		}
	}
	return advice
}
