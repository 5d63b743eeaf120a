package technical

import "github.com/seenimoa/stockpulse/pkg/models"

// divergenceLookback is the pivot window used for swing detection in
// divergence and pattern scans.
const divergenceLookback = 5

// PivotHighs returns the indices of local highs: bars with no higher high
// within ±lookback. Only the interior is scanned, the first and last
// `lookback` bars can never qualify.
func PivotHighs(candles []models.OHLCV, lookback int) []int {
	var pivots []int
	for i := lookback; i < len(candles)-lookback; i++ {
		if isPivotHigh(candles, i, lookback) {
			pivots = append(pivots, i)
		}
	}
	return pivots
}

// PivotLows returns the indices of local lows, mirroring PivotHighs.
func PivotLows(candles []models.OHLCV, lookback int) []int {
	var pivots []int
	for i := lookback; i < len(candles)-lookback; i++ {
		if isPivotLow(candles, i, lookback) {
			pivots = append(pivots, i)
		}
	}
	return pivots
}

// RSIDivergence compares price and RSI direction at the two most recent
// swing pivots. A lower price low with a higher RSI low is bullish; a
// higher price high with a lower RSI high is bearish. Returns
// DivergenceNone when fewer than two qualifying pivots exist or neither
// condition holds. Requires at least 30 bars.
func RSIDivergence(candles []models.OHLCV) models.Divergence {
	if len(candles) < 30 {
		return models.DivergenceNone
	}
	rsi := RSISeries(candles, 14)

	lows := PivotLows(candles, divergenceLookback)
	if len(lows) >= 2 {
		a, b := lows[len(lows)-2], lows[len(lows)-1]
		if candles[b].Low < candles[a].Low && rsi[b] > rsi[a] {
			return models.DivergenceBullish
		}
	}

	highs := PivotHighs(candles, divergenceLookback)
	if len(highs) >= 2 {
		a, b := highs[len(highs)-2], highs[len(highs)-1]
		if candles[b].High > candles[a].High && rsi[b] < rsi[a] {
			return models.DivergenceBearish
		}
	}

	return models.DivergenceNone
}

// SupportResistance derives the nearest support and resistance levels from
// recent swing pivots: support is the highest pivot low below the current
// close, resistance the lowest pivot high above it. Either value is 0 when
// no qualifying pivot exists.
func SupportResistance(candles []models.OHLCV) (support, resistance float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	price := candles[len(candles)-1].Close

	for _, i := range PivotLows(candles, divergenceLookback) {
		level := candles[i].Low
		if level < price && level > support {
			support = level
		}
	}
	for _, i := range PivotHighs(candles, divergenceLookback) {
		level := candles[i].High
		if level > price && (resistance == 0 || level < resistance) {
			resistance = level
		}
	}
	return support, resistance
}

// --- helpers ---

func isPivotHigh(candles []models.OHLCV, i, lookback int) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if j != i && candles[j].High > candles[i].High {
			return false
		}
	}
	return true
}

func isPivotLow(candles []models.OHLCV, i, lookback int) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if j != i && candles[j].Low < candles[i].Low {
			return false
		}
	}
	return true
}
