package technical

import (
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// AggregateWeekly resamples daily candles into weekly bars. Weeks start on
// Monday; a week's open is the first bar's open, high/low span the week,
// close is the last bar's close and volume is summed. The (possibly
// partial) current week is included.
func AggregateWeekly(candles []models.OHLCV) []models.OHLCV {
	if len(candles) == 0 {
		return nil
	}

	var weeks []models.OHLCV
	var cur models.OHLCV
	var curKey time.Time
	open := false

	for _, c := range candles {
		key := weekStart(c.Timestamp)
		if !open || !key.Equal(curKey) {
			if open {
				weeks = append(weeks, cur)
			}
			cur = c
			cur.Timestamp = key
			curKey = key
			open = true
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	weeks = append(weeks, cur)
	return weeks
}

// WeeklyTrendOf classifies the higher-timeframe trend by comparing the
// latest weekly close against the average of the last 20 weekly closes
// (fewer when history is short). Bullish when the close sits above the
// average.
func WeeklyTrendOf(candles []models.OHLCV) models.WeeklyTrend {
	weeks := AggregateWeekly(candles)
	if len(weeks) == 0 {
		return models.WeeklyBearish
	}

	window := 20
	if len(weeks) < window {
		window = len(weeks)
	}
	sum := 0.0
	for _, w := range weeks[len(weeks)-window:] {
		sum += w.Close
	}
	mean := sum / float64(window)

	if weeks[len(weeks)-1].Close > mean {
		return models.WeeklyBullish
	}
	return models.WeeklyBearish
}

// weekStart truncates t to midnight of its Monday.
func weekStart(t time.Time) time.Time {
	day := t.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}
