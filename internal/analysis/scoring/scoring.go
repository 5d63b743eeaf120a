// Package scoring reduces the indicator set for a candle history to a
// single weighted 0-10 composite score plus a per-factor breakdown.
//
// The scorer only ever looks backward from the last bar of the slice it
// is given, so the same code path serves live analysis and point-in-time
// rescoring during backtests.
package scoring

import (
	"fmt"
	"math"

	"github.com/seenimoa/stockpulse/internal/analysis/technical"
	"github.com/seenimoa/stockpulse/pkg/models"
)

const (
	// MinBars is the minimum history length for a meaningful score;
	// below it the composite degrades to neutral 5.0.
	MinBars = 50

	rsLookback = 126
	rsMinBench = 100

	// Placeholder sub-scores for factors not yet computed natively.
	adxPlaceholder = 7.0
	sarPlaceholder = 8.0
)

// Factor weights. They sum to 1.0.
const (
	weightRS         = 0.15
	weightPattern    = 0.15
	weightSMA150     = 0.10
	weightWeekly     = 0.10
	weightRVOL       = 0.10
	weightBollinger  = 0.10
	weightRSI        = 0.05
	weightMACD       = 0.05
	weightVWMA       = 0.05
	weightADX        = 0.05
	weightSAR        = 0.05
	weightDivergence = 0.05
)

// Inputs carries the optional auxiliary signals the scorer consumes
// alongside the price history.
type Inputs struct {
	// OfficialSMA150 is an externally sourced SMA150; when non-zero it
	// overrides the locally computed value. Backtests never set it so
	// historical bars always use point-in-time local computation.
	OfficialSMA150 float64

	// Benchmark is an index history truncated to the same end date as
	// the scored history; nil degrades relative strength to 1.0.
	Benchmark []models.OHLCV
}

// Composite returns the weighted 0-10 score for the history, rounded to
// one decimal. Returns neutral 5.0 when fewer than MinBars bars exist.
func Composite(history []models.OHLCV, in Inputs) float64 {
	scores := Breakdown(history, in)
	if scores == nil {
		return 5.0
	}
	total := 0.0
	for _, s := range scores {
		total += s.Score * s.Weight
	}
	return math.Round(total*10) / 10
}

// Breakdown computes every factor sub-score with its weight and
// explanation. Returns nil when fewer than MinBars bars exist.
func Breakdown(history []models.OHLCV, in Inputs) []models.IndicatorScore {
	if len(history) < MinBars {
		return nil
	}
	price := history[len(history)-1].Close

	return []models.IndicatorScore{
		scoreRelativeStrength(history, in.Benchmark),
		scorePattern(history),
		scoreSMA150(history, price, in.OfficialSMA150),
		scoreWeekly(history),
		scoreRVOL(history),
		scoreBollinger(history, price),
		scoreRSI(history),
		scoreMACD(history),
		scoreVWMA(history, price),
		scoreADX(),
		scoreSAR(),
		scoreDivergence(history),
	}
}

// RelativeStrength is the ratio of 126-bar total returns:
// (1 + stock return) / (1 + benchmark return). The lookback clamps to the
// available history; a missing or short benchmark yields neutral 1.0.
func RelativeStrength(history, benchmark []models.OHLCV) float64 {
	if len(benchmark) < rsMinBench || len(history) < 2 {
		return 1.0
	}
	stockRet := periodReturn(history, rsLookback)
	benchRet := periodReturn(benchmark, rsLookback)
	if 1+benchRet == 0 {
		return 1.0
	}
	return (1 + stockRet) / (1 + benchRet)
}

// --- factor sub-scores ---

func scoreRelativeStrength(history, benchmark []models.OHLCV) models.IndicatorScore {
	rs := RelativeStrength(history, benchmark)
	var score float64
	switch {
	case rs > 1.05:
		score = 10
	case rs > 1.00:
		score = 7
	default:
		score = 3
	}
	return models.IndicatorScore{
		Name:        "Relative Strength",
		Score:       score,
		Weight:      weightRS,
		Value:       fmt.Sprintf("%.2fx", rs),
		Description: "6-month return vs benchmark index",
		Bullish:     rs > 1.0,
		Explanation: fmt.Sprintf("Stock returned %.2fx the benchmark over the lookback", rs),
	}
}

func scorePattern(history []models.OHLCV) models.IndicatorScore {
	cup := technical.DetectCupHandle(history)
	score, value := 5.0, "none"
	if cup {
		score, value = 10, "cup-and-handle"
	}
	return models.IndicatorScore{
		Name:        "Pattern",
		Score:       score,
		Weight:      weightPattern,
		Value:       value,
		Description: "Cup-and-handle base detection",
		Bullish:     cup,
		Explanation: patternExplanation(cup),
	}
}

func scoreSMA150(history []models.OHLCV, price, official float64) models.IndicatorScore {
	sma := official
	if sma == 0 {
		sma = technical.SMA(history, 150)
	}
	score := 2.0
	if price > sma {
		score = 10
	}
	return models.IndicatorScore{
		Name:        "SMA150 Trend",
		Score:       score,
		Weight:      weightSMA150,
		Value:       fmt.Sprintf("%.2f", sma),
		Description: "Price position vs the 150-day moving average",
		Bullish:     price > sma,
		Explanation: fmt.Sprintf("Price %.2f vs SMA150 %.2f", price, sma),
	}
}

func scoreWeekly(history []models.OHLCV) models.IndicatorScore {
	trend := technical.WeeklyTrendOf(history)
	score := 2.0
	if trend == models.WeeklyBullish {
		score = 10
	}
	return models.IndicatorScore{
		Name:        "Weekly Trend",
		Score:       score,
		Weight:      weightWeekly,
		Value:       string(trend),
		Description: "Higher-timeframe trend vs 20-week average",
		Bullish:     trend == models.WeeklyBullish,
		Explanation: fmt.Sprintf("Weekly close is %s relative to its 20-week average", trend),
	}
}

func scoreRVOL(history []models.OHLCV) models.IndicatorScore {
	rvol := technical.RelativeVolume(history)
	var score float64
	switch {
	case rvol > 1.5:
		score = 10
	case rvol > 1.0:
		score = 7
	default:
		score = 3
	}
	return models.IndicatorScore{
		Name:        "Relative Volume",
		Score:       score,
		Weight:      weightRVOL,
		Value:       fmt.Sprintf("%.2fx", rvol),
		Description: "Last volume vs 20-day average",
		Bullish:     rvol > 1.0,
		Explanation: fmt.Sprintf("Volume running at %.2fx its 20-day average", rvol),
	}
}

func scoreBollinger(history []models.OHLCV, price float64) models.IndicatorScore {
	bb := technical.Bollinger(history, 20, 2)
	var score float64
	switch {
	case price > bb.Upper:
		score = 10
	case price > bb.Middle:
		score = 7
	default:
		score = 3
	}
	return models.IndicatorScore{
		Name:        "Bollinger",
		Score:       score,
		Weight:      weightBollinger,
		Value:       fmt.Sprintf("%.2f / %.2f", bb.Middle, bb.Upper),
		Description: "Price position inside the volatility bands",
		Bullish:     price > bb.Middle,
		Explanation: fmt.Sprintf("Price %.2f vs middle band %.2f", price, bb.Middle),
	}
}

func scoreRSI(history []models.OHLCV) models.IndicatorScore {
	rsi := technical.RSILatest(history, 14)
	var score float64
	switch {
	case rsi > 60:
		score = 10
	case rsi > 45:
		score = 6
	default:
		score = 2
	}
	return models.IndicatorScore{
		Name:        "RSI",
		Score:       score,
		Weight:      weightRSI,
		Value:       fmt.Sprintf("%.1f", rsi),
		Description: "14-day momentum oscillator",
		Bullish:     rsi > 50,
		Explanation: fmt.Sprintf("RSI at %.1f", rsi),
	}
}

func scoreMACD(history []models.OHLCV) models.IndicatorScore {
	macd := technical.MACD(history)
	score := 2.0
	if macd.Histogram > 0 {
		score = 10
	}
	return models.IndicatorScore{
		Name:        "MACD",
		Score:       score,
		Weight:      weightMACD,
		Value:       fmt.Sprintf("%.3f", macd.Histogram),
		Description: "MACD histogram sign",
		Bullish:     macd.Histogram > 0,
		Explanation: fmt.Sprintf("Histogram at %.3f", macd.Histogram),
	}
}

func scoreVWMA(history []models.OHLCV, price float64) models.IndicatorScore {
	vwma := technical.VWMA(history, 20)
	score := 3.0
	if price > vwma {
		score = 10
	}
	return models.IndicatorScore{
		Name:        "VWMA",
		Score:       score,
		Weight:      weightVWMA,
		Value:       fmt.Sprintf("%.2f", vwma),
		Description: "Price vs 20-day volume-weighted average",
		Bullish:     price > vwma,
		Explanation: fmt.Sprintf("Price %.2f vs VWMA %.2f", price, vwma),
	}
}

func scoreADX() models.IndicatorScore {
	return models.IndicatorScore{
		Name:        "ADX",
		Score:       adxPlaceholder,
		Weight:      weightADX,
		Value:       "n/a",
		Description: "Trend strength (static placeholder)",
		Bullish:     true,
		Explanation: "ADX is not computed natively yet",
	}
}

func scoreSAR() models.IndicatorScore {
	return models.IndicatorScore{
		Name:        "Parabolic SAR",
		Score:       sarPlaceholder,
		Weight:      weightSAR,
		Value:       "n/a",
		Description: "Stop-and-reverse (static placeholder)",
		Bullish:     true,
		Explanation: "SAR is not computed natively yet",
	}
}

func scoreDivergence(history []models.OHLCV) models.IndicatorScore {
	div := technical.RSIDivergence(history)
	var score float64
	var value string
	switch div {
	case models.DivergenceBullish:
		score, value = 10, "BULLISH"
	case models.DivergenceBearish:
		score, value = 2, "BEARISH"
	default:
		score, value = 5, "none"
	}
	return models.IndicatorScore{
		Name:        "RSI Divergence",
		Score:       score,
		Weight:      weightDivergence,
		Value:       value,
		Description: "Price/RSI disagreement at recent pivots",
		Bullish:     div == models.DivergenceBullish,
		Explanation: divergenceExplanation(div),
	}
}

// --- helpers ---

// periodReturn is the fractional return over the last `lookback` bars,
// clamped to the available history.
func periodReturn(candles []models.OHLCV, lookback int) float64 {
	n := len(candles)
	if n < 2 {
		return 0
	}
	if lookback >= n {
		lookback = n - 1
	}
	start := candles[n-1-lookback].Close
	if start == 0 {
		return 0
	}
	return candles[n-1].Close/start - 1
}

func patternExplanation(cup bool) string {
	if cup {
		return "Cup-and-handle base detected in recent price structure"
	}
	return "No recognized base pattern"
}

func divergenceExplanation(div models.Divergence) string {
	switch div {
	case models.DivergenceBullish:
		return "Price made a lower low while RSI made a higher low"
	case models.DivergenceBearish:
		return "Price made a higher high while RSI made a lower high"
	default:
		return "No divergence between price and RSI at recent pivots"
	}
}
