package technical

import (
	"github.com/seenimoa/stockpulse/pkg/models"
)

// SMA returns the arithmetic mean of the last `period` closes.
// Returns 0 when fewer than `period` bars are available.
func SMA(candles []models.OHLCV, period int) float64 {
	n := len(candles)
	if period <= 0 || n < period {
		return 0
	}
	sum := 0.0
	for _, c := range candles[n-period:] {
		sum += c.Close
	}
	return sum / float64(period)
}

// VWMA returns the volume-weighted mean of close over the last `period` bars:
// Σ(close·volume)/Σ(volume). Returns 0 on insufficient bars or zero total volume.
func VWMA(candles []models.OHLCV, period int) float64 {
	n := len(candles)
	if period <= 0 || n < period {
		return 0
	}
	var pv, vol float64
	for _, c := range candles[n-period:] {
		pv += c.Close * float64(c.Volume)
		vol += float64(c.Volume)
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

// EMASeries computes an exponential moving average over the data, seeded
// with the first value. Produces one value per input point.
func EMASeries(data []float64, period int) []float64 {
	n := len(data)
	if n == 0 || period <= 0 {
		return nil
	}
	ema := make([]float64, n)
	k := 2.0 / float64(period+1)
	ema[0] = data[0]
	for i := 1; i < n; i++ {
		ema[i] = data[i]*k + ema[i-1]*(1-k)
	}
	return ema
}

// EMALatest returns the most recent EMA value of the closes.
func EMALatest(candles []models.OHLCV, period int) float64 {
	vals := EMASeries(extractCloses(candles), period)
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}

// --- helpers ---

func extractCloses(candles []models.OHLCV) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
