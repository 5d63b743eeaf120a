package backtest

import (
	"math"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Performance Metrics
// ════════════════════════════════════════════════════════════════════

// maxProfitFactor caps the win/loss ratio when a run closes no losing
// trades. encoding/json rejects +Inf, so the cap keeps BacktestResult
// wire-safe.
const maxProfitFactor = 999

// computeTradeStats fills trade counts, win rate, average win/loss and
// profit factor from the trade log. All figures are on a percent basis.
func computeTradeStats(r *models.BacktestResult) {
	r.TotalTrades = len(r.Trades)
	if r.TotalTrades == 0 {
		return
	}

	var totalWin, totalLoss float64
	for _, t := range r.Trades {
		if t.Reason == models.ExitOpen {
			continue
		}
		if t.PnLPct > 0 {
			r.WinningTrades++
			totalWin += t.PnLPct
		} else if t.PnLPct < 0 {
			r.LosingTrades++
			totalLoss += math.Abs(t.PnLPct)
		}
	}

	r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100

	if r.WinningTrades > 0 {
		r.AvgWinPct = totalWin / float64(r.WinningTrades)
	}
	if r.LosingTrades > 0 {
		r.AvgLossPct = totalLoss / float64(r.LosingTrades)
	}

	if totalLoss > 0 {
		r.ProfitFactor = totalWin / totalLoss
		if r.ProfitFactor > maxProfitFactor {
			r.ProfitFactor = maxProfitFactor
		}
	} else if totalWin > 0 {
		r.ProfitFactor = maxProfitFactor
	}
}

// computeDrawdown fills the maximum peak-to-trough equity decline as a
// positive percentage.
func computeDrawdown(r *models.BacktestResult) {
	peak, maxDD := 0.0, 0.0
	for _, p := range r.EquityCurve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	r.MaxDrawdownPct = maxDD
}
