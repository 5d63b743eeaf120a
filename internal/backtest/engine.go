// Package backtest replays the composite scoring heuristic over historical
// OHLCV bars with a single simulated long-position slot, producing an
// equity curve and trade log compared against buy-and-hold.
//
// Every bar is rescored using only the history up to that bar, so the
// simulation is strictly point-in-time: no indicator ever sees data past
// the bar being evaluated.
package backtest

import (
	"math"
	"time"

	"github.com/seenimoa/stockpulse/internal/analysis/scoring"
	"github.com/seenimoa/stockpulse/internal/analysis/technical"
	"github.com/seenimoa/stockpulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Engine Configuration
// ════════════════════════════════════════════════════════════════════

// Config holds all parameters for a backtest run.
type Config struct {
	InitialEquity float64 // starting account value (default: 10,000)
	WindowBars    int     // maximum bars evaluated (default: 252, one trading year)
	WarmupBars    int     // bars reserved before the window for indicator stability (default: 150)
	PrimeScore    float64 // minimum score for a prime entry (default: 8.0)
	TrendScore    float64 // minimum score for a trend entry (default: 7.0)
	ExitScore     float64 // score below which an open position is closed (default: 4.5)
	BandProximity float64 // max |close-middle|/middle for a prime entry (default: 0.02)
	StopATRMult   float64 // stop distance in ATR multiples (default: 2.2)
	TargetATRMult float64 // target distance in ATR multiples (default: 4.5)
}

// DefaultConfig returns the standard simulation parameters.
func DefaultConfig() Config {
	return Config{
		InitialEquity: 10000,
		WindowBars:    252,
		WarmupBars:    150,
		PrimeScore:    8.0,
		TrendScore:    7.0,
		ExitScore:     4.5,
		BandProximity: 0.02,
		StopATRMult:   2.2,
		TargetATRMult: 4.5,
	}
}

// ════════════════════════════════════════════════════════════════════
// Engine: Point-in-Time Simulation
// ════════════════════════════════════════════════════════════════════

// Engine walks historical bars and simulates score-driven entries and
// ATR-based exits for one position slot.
type Engine struct {
	cfg Config
}

// NewEngine creates a backtesting engine, filling zero config fields with
// defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.InitialEquity <= 0 {
		cfg.InitialEquity = def.InitialEquity
	}
	if cfg.WindowBars <= 0 {
		cfg.WindowBars = def.WindowBars
	}
	if cfg.WarmupBars <= 0 {
		cfg.WarmupBars = def.WarmupBars
	}
	if cfg.PrimeScore <= 0 {
		cfg.PrimeScore = def.PrimeScore
	}
	if cfg.TrendScore <= 0 {
		cfg.TrendScore = def.TrendScore
	}
	if cfg.ExitScore <= 0 {
		cfg.ExitScore = def.ExitScore
	}
	if cfg.BandProximity <= 0 {
		cfg.BandProximity = def.BandProximity
	}
	if cfg.StopATRMult <= 0 {
		cfg.StopATRMult = def.StopATRMult
	}
	if cfg.TargetATRMult <= 0 {
		cfg.TargetATRMult = def.TargetATRMult
	}
	return &Engine{cfg: cfg}
}

// openPosition is the single trade slot while the simulator is LONG.
type openPosition struct {
	entryDate  time.Time
	entryPrice float64
	stop       float64
	target     float64
	isPrime    bool
}

// Run simulates the last min(WindowBars, len(history)-WarmupBars) bars of
// the history. The benchmark, when present, is truncated bar-by-bar to the
// evaluated date before being handed to the scorer. Histories too short
// for the warm-up produce an empty result with zero trades.
func (e *Engine) Run(history, benchmark []models.OHLCV) *models.BacktestResult {
	result := &models.BacktestResult{CurrentStatus: models.StatusCash}

	window := len(history) - e.cfg.WarmupBars
	if window > e.cfg.WindowBars {
		window = e.cfg.WindowBars
	}
	if window <= 0 {
		return result
	}
	start := len(history) - window
	firstClose := history[start].Close

	equity := e.cfg.InitialEquity
	var pos *openPosition

	for t := start; t < len(history); t++ {
		bar := history[t]
		slice := history[:t+1]

		score := scoring.Composite(slice, scoring.Inputs{
			Benchmark: truncateToDate(benchmark, bar.Timestamp),
		})
		middle := technical.Bollinger(slice, 20, 2).Middle
		atr := technical.ATR(slice, 14)

		isPrime := score >= e.cfg.PrimeScore && middle > 0 &&
			math.Abs(bar.Close-middle)/middle <= e.cfg.BandProximity
		isTrend := !isPrime && score >= e.cfg.TrendScore && bar.Close > middle

		point := models.EquityPoint{
			Date:   bar.Timestamp,
			Equity: equity,
		}
		if firstClose > 0 {
			point.BuyHold = bar.Close / firstClose * e.cfg.InitialEquity
		}

		if pos == nil {
			if isPrime || isTrend {
				pos = &openPosition{
					entryDate:  bar.Timestamp,
					entryPrice: bar.Close,
					stop:       bar.Close - e.cfg.StopATRMult*atr,
					target:     bar.Close + e.cfg.TargetATRMult*atr,
					isPrime:    isPrime,
				}
				point.IsEntry = true
				point.IsPrime = isPrime
				point.EntryReason = entryReason(isPrime)
			}
		} else {
			exitPrice, reason := e.exitTrigger(pos, bar, score)
			if reason != "" {
				equity *= exitPrice / pos.entryPrice
				result.Trades = append(result.Trades, closedTrade(pos, bar.Timestamp, exitPrice, reason))
				pos = nil
				point.Equity = equity
			}
		}

		if pos != nil {
			// Mark-to-market: floating P&L shows in the curve but is
			// only locked in on exit.
			point.Equity = equity * bar.Close / pos.entryPrice
		}
		result.EquityCurve = append(result.EquityCurve, point)
	}

	lastBar := history[len(history)-1]
	if pos != nil {
		result.CurrentStatus = models.StatusLong
		result.Trades = append(result.Trades, models.BacktestTrade{
			EntryDate:  pos.entryDate,
			EntryPrice: pos.entryPrice,
			PnLPct:     (lastBar.Close/pos.entryPrice - 1) * 100,
			Reason:     models.ExitOpen,
			Type:       "Long",
		})
		equity *= lastBar.Close / pos.entryPrice
	}

	result.TotalReturn = (equity/e.cfg.InitialEquity - 1) * 100
	if firstClose > 0 {
		result.ActualReturn = (lastBar.Close/firstClose - 1) * 100
	}
	result.AlphaReturn = result.TotalReturn - result.ActualReturn

	computeTradeStats(result)
	computeDrawdown(result)
	return result
}

// exitTrigger checks exit conditions in priority order: stop, target,
// then score breakdown at the close. Returns an empty reason when the
// position stays open.
func (e *Engine) exitTrigger(pos *openPosition, bar models.OHLCV, score float64) (float64, models.ExitReason) {
	switch {
	case bar.Low <= pos.stop:
		return pos.stop, models.ExitStop
	case bar.High >= pos.target:
		return pos.target, models.ExitTarget
	case score < e.cfg.ExitScore:
		return bar.Close, models.ExitSignal
	}
	return 0, ""
}

// --- helpers ---

func closedTrade(pos *openPosition, exitDate time.Time, exitPrice float64, reason models.ExitReason) models.BacktestTrade {
	return models.BacktestTrade{
		EntryDate:  pos.entryDate,
		EntryPrice: pos.entryPrice,
		ExitDate:   exitDate,
		ExitPrice:  exitPrice,
		PnLPct:     (exitPrice/pos.entryPrice - 1) * 100,
		Reason:     reason,
		Type:       "Long",
	}
}

func entryReason(isPrime bool) string {
	if isPrime {
		return "Prime setup: high score at band reversion"
	}
	return "Trend entry: score strength above the middle band"
}

// truncateToDate returns the prefix of candles dated at or before cutoff.
// Relies on candles being in ascending date order.
func truncateToDate(candles []models.OHLCV, cutoff time.Time) []models.OHLCV {
	if candles == nil {
		return nil
	}
	n := len(candles)
	for n > 0 && candles[n-1].Timestamp.After(cutoff) {
		n--
	}
	return candles[:n]
}
