// Package technical implements technical analysis indicators over daily
// OHLCV candle slices: moving averages, RSI, MACD, ATR, volatility bands,
// weekly trend, pivots, divergence and pattern detection.
//
// Every function is pure and degrades to a neutral or zero value on
// insufficient data instead of returning an error; callers always get a
// usable number.
package technical

import (
	"math"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// RSISeries calculates Wilder's smoothed RSI for the given period.
// The first `period` values are padded with a neutral 50 so the series
// is defined during warm-up. One value per input bar.
func RSISeries(candles []models.OHLCV, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	n := len(candles)
	rsi := make([]float64, n)
	for i := 0; i < n && i < period; i++ {
		rsi[i] = 50
	}
	if n < period+1 {
		return rsi
	}

	// Seed average gain/loss from the first `period` deltas.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		change := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return rsi
}

// RSILatest returns only the most recent RSI value, or neutral 50 for an
// empty series.
func RSILatest(candles []models.OHLCV, period int) float64 {
	vals := RSISeries(candles, period)
	if len(vals) == 0 {
		return 50
	}
	return vals[len(vals)-1]
}

// MACD calculates the 12/26/9 Moving Average Convergence Divergence.
// The signal line is a 9-period EMA of the MACD line seeded at the first
// MACD value. Returns zeros when fewer than 26 bars are available.
func MACD(candles []models.OHLCV) models.MACDData {
	closes := extractCloses(candles)
	if len(closes) < 26 {
		return models.MACDData{}
	}

	fast := EMASeries(closes, 12)
	slow := EMASeries(closes, 26)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fast[i] - slow[i]
	}
	signal := EMASeries(macdLine, 9)

	last := len(closes) - 1
	return models.MACDData{
		Line:      macdLine[last],
		Signal:    signal[last],
		Histogram: macdLine[last] - signal[last],
	}
}

// ATR returns the mean of the last `period` true-range values, where
// true range = max(high−low, |high−prevClose|, |low−prevClose|).
// Returns 0 when fewer than period+1 bars are available.
func ATR(candles []models.OHLCV, period int) float64 {
	if period <= 0 {
		period = 14
	}
	n := len(candles)
	if n < period+1 {
		return 0
	}
	sum := 0.0
	for i := n - period; i < n; i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		sum += math.Max(hl, math.Max(hc, lc))
	}
	return sum / float64(period)
}

// Bollinger returns SMA ± k·population-stddev of close over the window.
// Zero-valued bands when fewer than `period` bars are available.
func Bollinger(candles []models.OHLCV, period int, k float64) models.BandData {
	n := len(candles)
	if period <= 0 || n < period {
		return models.BandData{}
	}
	window := extractCloses(candles[n-period:])
	mean := avg(window)
	sd := stddev(window, mean)
	return models.BandData{
		Upper:  mean + k*sd,
		Middle: mean,
		Lower:  mean - k*sd,
	}
}

// Keltner returns EMA(period) ± mult·ATR(period) channels.
func Keltner(candles []models.OHLCV, period int, mult float64) models.BandData {
	n := len(candles)
	if period <= 0 || n < period {
		return models.BandData{}
	}
	mid := EMALatest(candles, period)
	atr := ATR(candles, period)
	return models.BandData{
		Upper:  mid + mult*atr,
		Middle: mid,
		Lower:  mid - mult*atr,
	}
}

// SqueezeOn reports volatility compression: Bollinger bands lying strictly
// inside the Keltner channels.
func SqueezeOn(bb, kc models.BandData) bool {
	if bb.Middle == 0 || kc.Middle == 0 {
		return false
	}
	return bb.Upper < kc.Upper && bb.Lower > kc.Lower
}

// VolumeAvg returns the mean volume over the last `period` bars, or 0 on
// insufficient data.
func VolumeAvg(candles []models.OHLCV, period int) float64 {
	n := len(candles)
	if period <= 0 || n < period {
		return 0
	}
	sum := 0.0
	for _, c := range candles[n-period:] {
		sum += float64(c.Volume)
	}
	return sum / float64(period)
}

// RelativeVolume returns the last bar's volume divided by the 20-bar
// average volume, or 0 when the average is unavailable.
func RelativeVolume(candles []models.OHLCV) float64 {
	n := len(candles)
	if n == 0 {
		return 0
	}
	avgVol := VolumeAvg(candles, 20)
	if avgVol == 0 {
		return 0
	}
	return float64(candles[n-1].Volume) / avgVol
}

// --- helpers ---

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func avg(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64, mean float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)))
}
