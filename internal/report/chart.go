// Package report renders PNG charts from analysis and backtest output.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/seenimoa/stockpulse/internal/analysis/technical"
	"github.com/seenimoa/stockpulse/pkg/models"
)

// RenderEquityCurve writes a PNG comparing the backtest strategy equity
// against buy-and-hold over the same window.
func RenderEquityCurve(ticker string, result *models.BacktestResult, w io.Writer) error {
	if result == nil || len(result.EquityCurve) < 2 {
		return fmt.Errorf("equity curve too short to render")
	}

	n := len(result.EquityCurve)
	times := make([]float64, n)
	equity := make([]float64, n)
	buyHold := make([]float64, n)
	for i, p := range result.EquityCurve {
		times[i] = float64(p.Date.Unix())
		equity[i] = p.Equity
		buyHold[i] = p.BuyHold
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("%s — Strategy vs Buy & Hold", ticker),
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: unixDateFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Equity",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Strategy",
				XValues: times,
				YValues: equity,
			},
			chart.ContinuousSeries{
				Name:    "Buy & Hold",
				XValues: times,
				YValues: buyHold,
				Style: chart.Style{
					StrokeColor:     chart.ColorBlue,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// RenderPriceChart writes a PNG of the closing price with Bollinger bands
// over the last `bars` candles of the history.
func RenderPriceChart(ticker string, history []models.OHLCV, bars int, w io.Writer) error {
	if bars <= 0 || bars > len(history) {
		bars = len(history)
	}
	if bars < 21 {
		return fmt.Errorf("need at least 21 bars to render bands, got %d", bars)
	}

	start := len(history) - bars
	times := make([]float64, 0, bars)
	closes := make([]float64, 0, bars)
	upper := make([]float64, 0, bars)
	middle := make([]float64, 0, bars)
	lower := make([]float64, 0, bars)

	for t := start; t < len(history); t++ {
		bb := technical.Bollinger(history[:t+1], 20, 2)
		if bb.Middle == 0 {
			continue
		}
		times = append(times, float64(history[t].Timestamp.Unix()))
		closes = append(closes, history[t].Close)
		upper = append(upper, bb.Upper)
		middle = append(middle, bb.Middle)
		lower = append(lower, bb.Lower)
	}
	if len(times) < 2 {
		return fmt.Errorf("not enough band values to render")
	}

	bandStyle := chart.Style{
		StrokeColor:     drawing.Color{R: 128, G: 128, B: 192, A: 255},
		StrokeDashArray: []float64{4.0, 4.0},
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("%s — Price with Bollinger Bands", ticker),
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: unixDateFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Price",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Close",
				XValues: times,
				YValues: closes,
			},
			chart.ContinuousSeries{Name: "Upper", XValues: times, YValues: upper, Style: bandStyle},
			chart.ContinuousSeries{
				Name:    "SMA20",
				XValues: times,
				YValues: middle,
				Style:   chart.Style{StrokeColor: chart.ColorBlue},
			},
			chart.ContinuousSeries{Name: "Lower", XValues: times, YValues: lower, Style: bandStyle},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// RenderScoreTrend writes a small PNG sparkline of the trailing composite
// score points.
func RenderScoreTrend(ticker string, scores []float64, w io.Writer) error {
	if len(scores) < 2 {
		return fmt.Errorf("need at least 2 score points, got %d", len(scores))
	}

	xs := make([]float64, len(scores))
	for i := range scores {
		xs[i] = float64(i + 1)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s — Score Trend", ticker),
		Height: 200,
		YAxis: chart.YAxis{
			Name:  "Score",
			Range: &chart.ContinuousRange{Min: 0, Max: 10},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Composite Score",
				XValues: xs,
				YValues: scores,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// unixDateFormatter renders a unix-seconds axis value as YYYY-MM-DD.
func unixDateFormatter(v any) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return chart.TimeDateValueFormatter(time.Unix(int64(f), 0))
}
