// Package analyzer orchestrates the indicator library, composite scorer
// and backtest simulator into a single full analysis of one ticker.
package analyzer

import (
	"fmt"
	"math"
	"time"

	"github.com/seenimoa/stockpulse/internal/analysis/scoring"
	"github.com/seenimoa/stockpulse/internal/analysis/technical"
	"github.com/seenimoa/stockpulse/internal/backtest"
	"github.com/seenimoa/stockpulse/pkg/models"
)

const (
	scoreHistoryPoints = 7

	strongBuyScore = 8.5
	buyScore       = 6.5
	holdScore      = 4.5

	primeScore     = 8.0
	primeProximity = 0.02
	primeRVOL      = 1.2
	trendRSI       = 55
	trendRVOL      = 1.2

	riskStopATR   = 2.5
	riskTargetATR = 5.0
)

// Options carries the optional auxiliary inputs for one analysis.
type Options struct {
	// OfficialSMA150 is an externally sourced SMA150 that overrides the
	// local computation inside the scorer. Zero means unavailable.
	OfficialSMA150 float64

	// MarketCap is a passthrough display value.
	MarketCap float64

	// Benchmark is an index history used for relative strength; nil
	// degrades the RS ratio to neutral 1.0.
	Benchmark []models.OHLCV

	// SkipBacktest leaves the result's Backtest field nil. Used by the
	// scanner where per-ticker simulation would dominate runtime.
	SkipBacktest bool
}

// Analyze produces a full AnalysisResult for a ticker from its candle
// history. It never fails: short or degenerate histories yield a neutral
// result rather than an error.
func Analyze(ticker string, history []models.OHLCV, opts Options) *models.AnalysisResult {
	result := &models.AnalysisResult{
		Ticker:    ticker,
		MarketCap: opts.MarketCap,
		History:   history,
		Timestamp: time.Now(),
	}

	if len(history) > 0 {
		result.CurrentPrice = history[len(history)-1].Close
	}
	if len(history) >= 2 {
		prev := history[len(history)-2].Close
		if prev != 0 {
			result.ChangePercent = (result.CurrentPrice/prev - 1) * 100
		}
	}

	snap := buildSnapshot(history, opts.Benchmark)
	result.TechnicalData = snap

	inputs := scoring.Inputs{
		OfficialSMA150: opts.OfficialSMA150,
		Benchmark:      opts.Benchmark,
	}
	result.Indicators = scoring.Breakdown(history, inputs)
	result.TotalScore = scoring.Composite(history, inputs)
	result.Recommendation = recommend(result.TotalScore)

	result.IsPrimeSetup = isPrimeSetup(result.TotalScore, result.CurrentPrice, snap)
	result.IsTrendEntry = !result.IsPrimeSetup &&
		isTrendEntry(result.CurrentPrice, snap)

	result.RiskPlan = buildRiskPlan(snap)
	result.ScoreHistory = scoreHistory(history, inputs)

	if !opts.SkipBacktest {
		result.Backtest = backtest.NewEngine(backtest.DefaultConfig()).
			Run(history, opts.Benchmark)
	}

	return result
}

// buildSnapshot computes every indicator value at the last bar. The SMA150
// here is always the locally computed one; the official override applies
// only inside the scorer.
func buildSnapshot(history, benchmark []models.OHLCV) models.TechnicalSnapshot {
	snap := models.TechnicalSnapshot{
		RSI:              technical.RSILatest(history, 14),
		SMA150:           technical.SMA(history, 150),
		VWMA:             technical.VWMA(history, 20),
		MACD:             technical.MACD(history),
		Bollinger:        technical.Bollinger(history, 20, 2),
		Keltner:          technical.Keltner(history, 20, 1.5),
		RSIDivergence:    technical.RSIDivergence(history),
		RelativeStrength: scoring.RelativeStrength(history, benchmark),
		ATR:              technical.ATR(history, 14),
		VolumeAvg20:      technical.VolumeAvg(history, 20),
		IsCupHandle:      technical.DetectCupHandle(history),
		WeeklyTrend:      technical.WeeklyTrendOf(history),
	}
	snap.SqueezeOn = technical.SqueezeOn(snap.Bollinger, snap.Keltner)
	snap.Support, snap.Resistance = technical.SupportResistance(history)
	if len(history) > 0 {
		snap.LastVolume = history[len(history)-1].Volume
	}
	return snap
}

func recommend(score float64) models.Recommendation {
	switch {
	case score >= strongBuyScore:
		return models.StrongBuy
	case score >= buyScore:
		return models.Buy
	case score >= holdScore:
		return models.Hold
	default:
		return models.Sell
	}
}

// isPrimeSetup is the strictest classification: a high score while price
// reverts to the middle band inside a confirmed higher-timeframe uptrend
// with expanding volume and benchmark outperformance. All five conditions
// are mandatory.
func isPrimeSetup(score, price float64, snap models.TechnicalSnapshot) bool {
	if snap.Bollinger.Middle == 0 {
		return false
	}
	rvol := relativeVolume(snap)
	return score >= primeScore &&
		math.Abs(price-snap.Bollinger.Middle)/snap.Bollinger.Middle <= primeProximity &&
		snap.WeeklyTrend == models.WeeklyBullish &&
		rvol >= primeRVOL &&
		snap.RelativeStrength > 1.0
}

// isTrendEntry is the looser momentum classification. Callers enforce
// mutual exclusion with the prime setup.
func isTrendEntry(price float64, snap models.TechnicalSnapshot) bool {
	return price > snap.SMA150 && snap.SMA150 > 0 &&
		snap.WeeklyTrend == models.WeeklyBullish &&
		snap.RSI > trendRSI &&
		relativeVolume(snap) > trendRVOL
}

// buildRiskPlan derives an entry at the middle band with an ATR-based
// stop and target, fixed at 2:1 reward to risk by construction.
func buildRiskPlan(snap models.TechnicalSnapshot) models.RiskPlan {
	entry := snap.Bollinger.Middle
	if entry == 0 || snap.ATR == 0 {
		return models.RiskPlan{}
	}
	stop := entry - riskStopATR*snap.ATR
	target := entry + riskTargetATR*snap.ATR
	return models.RiskPlan{
		EntryPrice:   entry,
		StopLoss:     stop,
		TakeProfit:   target,
		RiskReward:   (target - entry) / (entry - stop),
		Thesis:       fmt.Sprintf("Accumulate near the 20-day mean %.2f with volatility-sized exits", entry),
		EntrySource:  "Bollinger middle band (SMA20)",
		StopSource:   fmt.Sprintf("entry - %.1f x ATR", riskStopATR),
		TargetSource: fmt.Sprintf("entry + %.1f x ATR", riskTargetATR),
	}
}

// scoreHistory rescores progressively truncated history slices to build a
// short trailing trend of the composite score, oldest first. Slices that
// would fall below the scorer's minimum are skipped.
func scoreHistory(history []models.OHLCV, inputs scoring.Inputs) []float64 {
	var points []float64
	for i := scoreHistoryPoints - 1; i >= 0; i-- {
		n := len(history) - i
		if n < scoring.MinBars {
			continue
		}
		slice := history[:n]
		in := scoring.Inputs{
			OfficialSMA150: inputs.OfficialSMA150,
			Benchmark:      truncateToDate(inputs.Benchmark, slice[n-1].Timestamp),
		}
		points = append(points, scoring.Composite(slice, in))
	}
	return points
}

func relativeVolume(snap models.TechnicalSnapshot) float64 {
	if snap.VolumeAvg20 == 0 {
		return 0
	}
	return float64(snap.LastVolume) / snap.VolumeAvg20
}

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
