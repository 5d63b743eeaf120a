package technical

import (
	"math"
	"testing"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// makeCandles generates synthetic OHLCV data for testing.
func makeCandles(n int, basePrice float64, trend float64) []models.OHLCV {
	candles := make([]models.OHLCV, n)
	price := basePrice
	for i := 0; i < n; i++ {
		open := price
		close := open + trend
		high := open + 5
		low := open - 5
		if close > open {
			high = close + 3
		} else {
			low = close - 3
		}
		candles[i] = models.OHLCV{
			Timestamp: baseDate.Add(time.Duration(i) * 24 * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000000 + int64(i*10000),
		}
		price = close
	}
	return candles
}

// candlesFromCloses builds candles that track an explicit close series.
func candlesFromCloses(closes []float64) []models.OHLCV {
	candles := make([]models.OHLCV, len(closes))
	for i, c := range closes {
		candles[i] = models.OHLCV{
			Timestamp: baseDate.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000000,
		}
	}
	return candles
}

// baseDate is a Monday, so weekly grouping in tests is predictable.
var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSMA(t *testing.T) {
	candles := candlesFromCloses([]float64{10, 20, 30, 40, 50})
	got := SMA(candles, 5)
	if got != 30 {
		t.Errorf("SMA = %.2f, want 30", got)
	}
	got = SMA(candles, 3)
	if got != 40 {
		t.Errorf("SMA(3) = %.2f, want 40", got)
	}
}

func TestSMAInsufficientData(t *testing.T) {
	candles := makeCandles(5, 100, 1)
	if got := SMA(candles, 10); got != 0 {
		t.Errorf("SMA with short history = %.2f, want 0", got)
	}
}

func TestVWMA(t *testing.T) {
	candles := candlesFromCloses([]float64{10, 20})
	candles[0].Volume = 100
	candles[1].Volume = 300
	got := VWMA(candles, 2)
	want := (10.0*100 + 20.0*300) / 400
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("VWMA = %.4f, want %.4f", got, want)
	}
}

func TestVWMAZeroVolume(t *testing.T) {
	candles := candlesFromCloses([]float64{10, 20, 30})
	for i := range candles {
		candles[i].Volume = 0
	}
	if got := VWMA(candles, 3); got != 0 {
		t.Errorf("VWMA with zero volume = %.2f, want 0", got)
	}
}

func TestEMASeries(t *testing.T) {
	data := []float64{10, 11, 12, 13, 14}
	ema := EMASeries(data, 3)
	if len(ema) != len(data) {
		t.Fatalf("expected %d EMA values, got %d", len(data), len(ema))
	}
	if ema[0] != data[0] {
		t.Errorf("EMA seed = %.2f, want first value %.2f", ema[0], data[0])
	}
	// k = 0.5: ema[1] = 11*0.5 + 10*0.5 = 10.5
	if math.Abs(ema[1]-10.5) > 1e-9 {
		t.Errorf("ema[1] = %.4f, want 10.5", ema[1])
	}
}

func TestRSISeries(t *testing.T) {
	candles := makeCandles(50, 100, 1.5)
	vals := RSISeries(candles, 14)
	if len(vals) != 50 {
		t.Fatalf("expected 50 RSI values, got %d", len(vals))
	}
	// Warm-up values are padded with neutral 50.
	for i := 0; i < 14; i++ {
		if vals[i] != 50 {
			t.Fatalf("warm-up RSI[%d] = %.2f, want 50", i, vals[i])
		}
	}
	// In a steady uptrend the latest RSI should be high.
	if latest := vals[len(vals)-1]; latest < 70 {
		t.Errorf("expected RSI > 70 in uptrend, got %.2f", latest)
	}
}

func TestRSIShortHistory(t *testing.T) {
	candles := makeCandles(5, 100, 1)
	vals := RSISeries(candles, 14)
	if len(vals) != 5 {
		t.Fatalf("expected 5 values, got %d", len(vals))
	}
	for i, v := range vals {
		if v != 50 {
			t.Errorf("RSI[%d] = %.2f, want neutral 50", i, v)
		}
	}
}

func TestMACD(t *testing.T) {
	candles := makeCandles(60, 100, 0.5)
	macd := MACD(candles)
	if macd.Line <= 0 {
		t.Errorf("expected positive MACD line in uptrend, got %.4f", macd.Line)
	}
	if math.Abs(macd.Histogram-(macd.Line-macd.Signal)) > 1e-9 {
		t.Errorf("histogram != line - signal")
	}
}

func TestMACDInsufficientData(t *testing.T) {
	candles := makeCandles(20, 100, 1)
	macd := MACD(candles)
	if macd.Line != 0 || macd.Signal != 0 || macd.Histogram != 0 {
		t.Errorf("MACD with <26 bars = %+v, want zeros", macd)
	}
}

func TestATR(t *testing.T) {
	// Flat closes with a constant 2-point bar range: TR is 2 every bar.
	candles := candlesFromCloses(make([]float64, 30))
	for i := range candles {
		candles[i].Open = 100
		candles[i].Close = 100
		candles[i].High = 101
		candles[i].Low = 99
	}
	got := ATR(candles, 14)
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("ATR = %.4f, want 2", got)
	}
}

func TestATRInsufficientData(t *testing.T) {
	candles := makeCandles(10, 100, 1)
	if got := ATR(candles, 14); got != 0 {
		t.Errorf("ATR with short history = %.2f, want 0", got)
	}
}

func TestBollinger(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 98
		} else {
			closes[i] = 102
		}
	}
	bands := Bollinger(candlesFromCloses(closes), 20, 2)
	if math.Abs(bands.Middle-100) > 1e-9 {
		t.Errorf("middle = %.4f, want 100", bands.Middle)
	}
	// Population stddev of alternating 98/102 is exactly 2.
	if math.Abs(bands.Upper-104) > 1e-9 || math.Abs(bands.Lower-96) > 1e-9 {
		t.Errorf("bands = [%.4f, %.4f], want [96, 104]", bands.Lower, bands.Upper)
	}
}

func TestSqueeze(t *testing.T) {
	// Flat closes: Bollinger collapses to the mean while the bar range
	// keeps Keltner channels open, so the squeeze must be on.
	candles := candlesFromCloses(make([]float64, 40))
	for i := range candles {
		candles[i].Open = 100
		candles[i].Close = 100
		candles[i].High = 102
		candles[i].Low = 98
	}
	bb := Bollinger(candles, 20, 2)
	kc := Keltner(candles, 20, 1.5)
	if !SqueezeOn(bb, kc) {
		t.Errorf("expected squeeze with flat closes, bb=%+v kc=%+v", bb, kc)
	}
}

func TestRelativeVolume(t *testing.T) {
	candles := candlesFromCloses(make([]float64, 25))
	for i := range candles {
		candles[i].Close = 100
		candles[i].Volume = 1000
	}
	candles[len(candles)-1].Volume = 2500
	got := RelativeVolume(candles)
	want := 2500.0 / ((1000.0*19 + 2500) / 20)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RelativeVolume = %.4f, want %.4f", got, want)
	}
}

func TestAggregateWeekly(t *testing.T) {
	// Ten consecutive calendar days starting on a Monday: one full week
	// plus three days of the next.
	candles := makeCandles(10, 100, 1)
	weeks := AggregateWeekly(candles)
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weekly bars, got %d", len(weeks))
	}
	if weeks[0].Open != candles[0].Open {
		t.Errorf("week open = %.2f, want %.2f", weeks[0].Open, candles[0].Open)
	}
	if weeks[0].Close != candles[6].Close {
		t.Errorf("week close = %.2f, want %.2f", weeks[0].Close, candles[6].Close)
	}
	var wantVol int64
	for _, c := range candles[:7] {
		wantVol += c.Volume
	}
	if weeks[0].Volume != wantVol {
		t.Errorf("week volume = %d, want %d", weeks[0].Volume, wantVol)
	}
}

func TestWeeklyTrend(t *testing.T) {
	up := makeCandles(300, 100, 0.5)
	if got := WeeklyTrendOf(up); got != models.WeeklyBullish {
		t.Errorf("uptrend weekly trend = %s, want BULLISH", got)
	}
	down := makeCandles(300, 300, -0.5)
	if got := WeeklyTrendOf(down); got != models.WeeklyBearish {
		t.Errorf("downtrend weekly trend = %s, want BEARISH", got)
	}
}

func TestPivotDetection(t *testing.T) {
	// Single tent shape: one clear high at the apex, lows at the edges
	// are excluded because pivots only scan the interior.
	closes := []float64{100, 102, 104, 106, 108, 110, 108, 106, 104, 102, 100}
	candles := candlesFromCloses(closes)
	highs := PivotHighs(candles, 5)
	if len(highs) != 1 || highs[0] != 5 {
		t.Errorf("pivot highs = %v, want [5]", highs)
	}
	if lows := PivotLows(candles, 5); len(lows) != 0 {
		t.Errorf("pivot lows = %v, want none", lows)
	}
}

func TestRSIDivergenceBullish(t *testing.T) {
	// Steep sell-off to a first low, a rally, then a choppy drift to a
	// marginally lower low. The gentler second decline leaves RSI higher
	// at the lower price pivot.
	closes := make([]float64, 0, 60)
	for i := 0; i < 10; i++ {
		closes = append(closes, 100)
	}
	price := 100.0
	for i := 0; i < 10; i++ {
		price -= 2
		closes = append(closes, price) // down to 80
	}
	for i := 0; i < 10; i++ {
		price += 1
		closes = append(closes, price) // back to 90
	}
	for i := 0; i < 11; i++ {
		price -= 3
		closes = append(closes, price)
		price += 2
		closes = append(closes, price) // choppy slide to 77/79
	}
	for i := 0; i < 6; i++ {
		price += 1
		closes = append(closes, price)
	}
	got := RSIDivergence(candlesFromCloses(closes))
	if got != models.DivergenceBullish {
		t.Errorf("divergence = %q, want BULLISH", got)
	}
}

func TestRSIDivergenceShortHistory(t *testing.T) {
	candles := makeCandles(20, 100, -1)
	if got := RSIDivergence(candles); got != models.DivergenceNone {
		t.Errorf("divergence with <30 bars = %q, want none", got)
	}
}

func TestSupportResistance(t *testing.T) {
	closes := []float64{100, 102, 104, 106, 108, 110, 108, 106, 104, 102, 100,
		98, 96, 94, 92, 90, 92, 94, 96, 98, 100, 102, 104}
	candles := candlesFromCloses(closes)
	support, resistance := SupportResistance(candles)
	if support != 89 { // pivot low close 90, bar low = close - 1
		t.Errorf("support = %.2f, want 89", support)
	}
	if resistance != 111 { // pivot high close 110, bar high = close + 1
		t.Errorf("resistance = %.2f, want 111", resistance)
	}
}

func TestDetectCupHandle(t *testing.T) {
	closes := make([]float64, 0, 160)
	price := 55.0
	for i := 0; i < 91; i++ {
		closes = append(closes, price) // climb to the left rim at 100
		price += 0.5
	}
	for i := 0; i < 20; i++ {
		price -= 1.25
		closes = append(closes, price) // cup bottom near 75
	}
	for i := 0; i < 20; i++ {
		price += 1.25
		closes = append(closes, price) // right rim back at 100
	}
	for i := 0; i < 25; i++ {
		closes = append(closes, 96) // tight handle above the retracement
	}
	if !DetectCupHandle(candlesFromCloses(closes)) {
		t.Error("expected cup-and-handle in constructed base")
	}
}

func TestDetectCupHandleNegative(t *testing.T) {
	if DetectCupHandle(makeCandles(160, 100, 0.5)) {
		t.Error("monotonic uptrend should not register a cup")
	}
	if DetectCupHandle(makeCandles(60, 100, 0.5)) {
		t.Error("short history should not register a cup")
	}
}
