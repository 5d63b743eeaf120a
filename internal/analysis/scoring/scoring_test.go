package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
)

func makeCandles(n int, basePrice float64, trend float64) []models.OHLCV {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.OHLCV, n)
	price := basePrice
	for i := 0; i < n; i++ {
		open := price
		close := open + trend
		candles[i] = models.OHLCV{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      open,
			High:      math.Max(open, close) + 2,
			Low:       math.Min(open, close) - 2,
			Close:     close,
			Volume:    1000000,
		}
		price = close
	}
	return candles
}

func TestCompositeShortHistory(t *testing.T) {
	candles := makeCandles(30, 100, 1)
	if got := Composite(candles, Inputs{}); got != 5.0 {
		t.Errorf("score with <50 bars = %.1f, want exactly 5.0", got)
	}
	if Breakdown(candles, Inputs{}) != nil {
		t.Error("breakdown with <50 bars should be nil")
	}
}

func TestWeightsSumToOne(t *testing.T) {
	scores := Breakdown(makeCandles(300, 100, 0.5), Inputs{})
	if scores == nil {
		t.Fatal("expected breakdown for 300 bars")
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Weight
		if s.Score < 0 || s.Score > 10 {
			t.Errorf("factor %s score %.1f out of [0,10]", s.Name, s.Score)
		}
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum to %.4f, want 1.0", sum)
	}
}

func TestCompositeUptrend(t *testing.T) {
	candles := makeCandles(300, 100, 0.5)
	score := Composite(candles, Inputs{})
	if score < 6.0 {
		t.Errorf("steady uptrend scored %.1f, expected >= 6.0", score)
	}
	// One-decimal rounding.
	if math.Abs(score*10-math.Round(score*10)) > 1e-9 {
		t.Errorf("score %.4f is not rounded to one decimal", score)
	}
}

func TestCompositeDeterministic(t *testing.T) {
	candles := makeCandles(300, 100, 0.3)
	bench := makeCandles(300, 400, 0.2)
	a := Composite(candles, Inputs{Benchmark: bench})
	b := Composite(candles, Inputs{Benchmark: bench})
	if a != b {
		t.Errorf("composite not deterministic: %.1f vs %.1f", a, b)
	}
}

func TestOfficialSMAOverride(t *testing.T) {
	candles := makeCandles(300, 100, 0.5) // last close ~250, local SMA well below
	without := findFactor(t, Breakdown(candles, Inputs{}), "SMA150 Trend")
	if without.Score != 10 {
		t.Fatalf("uptrend SMA factor = %.1f, want 10", without.Score)
	}
	// An official SMA above the price must flip the factor bearish.
	with := findFactor(t, Breakdown(candles, Inputs{OfficialSMA150: 10000}), "SMA150 Trend")
	if with.Score != 2 {
		t.Errorf("official SMA above price gave %.1f, want 2", with.Score)
	}
}

func TestRelativeStrength(t *testing.T) {
	stock := makeCandles(300, 100, 1)    // strong gainer
	bench := makeCandles(300, 100, 0.05) // nearly flat
	rs := RelativeStrength(stock, bench)
	if rs <= 1.05 {
		t.Errorf("outperformer RS = %.3f, want > 1.05", rs)
	}
	if got := RelativeStrength(stock, nil); got != 1.0 {
		t.Errorf("RS with nil benchmark = %.3f, want 1.0", got)
	}
	if got := RelativeStrength(stock, makeCandles(50, 100, 0.5)); got != 1.0 {
		t.Errorf("RS with short benchmark = %.3f, want 1.0", got)
	}
}

func findFactor(t *testing.T, scores []models.IndicatorScore, name string) models.IndicatorScore {
	t.Helper()
	for _, s := range scores {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("factor %q not found", name)
	return models.IndicatorScore{}
}
