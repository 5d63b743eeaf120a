package advisor

import (
	"math"
	"testing"

	"github.com/seenimoa/stockpulse/pkg/models"
)

func makeResult(price, score, rsi, atr float64, weekly models.WeeklyTrend) *models.AnalysisResult {
	return &models.AnalysisResult{
		CurrentPrice: price,
		TotalScore:   score,
		TechnicalData: models.TechnicalSnapshot{
			RSI:         rsi,
			ATR:         atr,
			WeeklyTrend: weekly,
		},
	}
}

func TestAdviseNoEntryPrice(t *testing.T) {
	advice := Advise(makeResult(100, 9, 60, 2, models.WeeklyBullish), models.Position{})
	if advice.Action != models.ActionHold {
		t.Errorf("action = %s, want HOLD for missing entry price", advice.Action)
	}
}

func TestAdviseBuyMore(t *testing.T) {
	// High score, small gain, weekly uptrend.
	result := makeResult(105, 8.7, 62, 2, models.WeeklyBullish)
	advice := Advise(result, models.Position{Ticker: "ACME", AvgEntryPrice: 100})
	if advice.Action != models.ActionBuyMore {
		t.Errorf("action = %s, want BUY MORE", advice.Action)
	}
	if math.Abs(advice.PnLPercentage-5) > 1e-9 {
		t.Errorf("pnl = %.2f, want 5", advice.PnLPercentage)
	}
}

func TestAdviseExhaustion(t *testing.T) {
	result := makeResult(120, 7.0, 80, 2, models.WeeklyBullish)
	advice := Advise(result, models.Position{AvgEntryPrice: 100})
	if advice.Action != models.ActionTakeProfit {
		t.Errorf("action = %s, want TAKE PROFIT for RSI exhaustion", advice.Action)
	}
}

func TestAdviseCutLossUnderwater(t *testing.T) {
	result := makeResult(90, 3.8, 40, 2, models.WeeklyBearish)
	advice := Advise(result, models.Position{AvgEntryPrice: 100})
	if advice.Action != models.ActionCutLoss {
		t.Errorf("action = %s, want CUT LOSS", advice.Action)
	}
}

func TestAdviseParabolicGainAnyScore(t *testing.T) {
	// pnl=30% fires the take-profit rule regardless of score.
	for _, score := range []float64{2.0, 5.0, 9.5} {
		result := makeResult(130, score, 60, 2, models.WeeklyBearish)
		if score >= 8.5 {
			// Rule 1 needs pnl<10, so even a top score falls through
			// to the parabolic rule here.
			result.TechnicalData.WeeklyTrend = models.WeeklyBullish
		}
		advice := Advise(result, models.Position{AvgEntryPrice: 100})
		if advice.Action != models.ActionTakeProfit {
			t.Errorf("score %.1f: action = %s, want TAKE PROFIT", score, advice.Action)
		}
	}
}

func TestAdviseStructuralFailure(t *testing.T) {
	// Losing nothing yet, but the score has collapsed.
	result := makeResult(102, 3.0, 45, 2, models.WeeklyBearish)
	advice := Advise(result, models.Position{AvgEntryPrice: 100})
	if advice.Action != models.ActionCutLoss {
		t.Errorf("action = %s, want CUT LOSS for structural failure", advice.Action)
	}
}

func TestAdviseHoldDefault(t *testing.T) {
	result := makeResult(104, 6.0, 55, 2, models.WeeklyBullish)
	advice := Advise(result, models.Position{AvgEntryPrice: 100})
	if advice.Action != models.ActionHold {
		t.Errorf("action = %s, want HOLD", advice.Action)
	}
}

func TestAdviseATRFallback(t *testing.T) {
	// Zero ATR falls back to 3% of price for stop/target sizing.
	result := makeResult(100, 6.0, 55, 0, models.WeeklyBullish)
	advice := Advise(result, models.Position{AvgEntryPrice: 100})
	wantStop := 100 - 2.2*3.0
	wantTarget := 100 + 4.5*3.0
	if math.Abs(advice.SuggestedStop-wantStop) > 1e-9 {
		t.Errorf("stop = %.2f, want %.2f", advice.SuggestedStop, wantStop)
	}
	if math.Abs(advice.SuggestedTarget-wantTarget) > 1e-9 {
		t.Errorf("target = %.2f, want %.2f", advice.SuggestedTarget, wantTarget)
	}
}
