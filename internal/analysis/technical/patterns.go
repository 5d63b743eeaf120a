package technical

import (
	"sort"

	"github.com/seenimoa/stockpulse/pkg/models"
)

const (
	cupMinBars      = 150
	cupRimWindow    = 60   // right rims must sit in the last N bars
	cupMinWidth     = 35   // minimum bars between the two rims
	cupRimTolerance = 0.20 // left rim within 20% of the right rim price
	cupMinDepth     = 0.10
	cupMaxDepth     = 0.50
)

// DetectCupHandle scans recent swing highs for a cup-and-handle base:
// two rims of similar height at least cupMinWidth bars apart, a cup
// bottom between them 10 to 50 percent below the right rim, and a handle
// that never retraces below half the cup depth. Right-rim candidates are
// tried from the highest price downward and the first valid combination
// wins. Requires at least 150 bars.
func DetectCupHandle(candles []models.OHLCV) bool {
	n := len(candles)
	if n < cupMinBars {
		return false
	}

	highs := PivotHighs(candles, divergenceLookback)
	lows := PivotLows(candles, divergenceLookback)
	if len(highs) < 2 || len(lows) == 0 {
		return false
	}

	var rightRims []int
	for _, i := range highs {
		if i >= n-cupRimWindow {
			rightRims = append(rightRims, i)
		}
	}
	sort.Slice(rightRims, func(a, b int) bool {
		return candles[rightRims[a]].High > candles[rightRims[b]].High
	})

	for _, right := range rightRims {
		rimPrice := candles[right].High
		for _, left := range highs {
			if left > right-cupMinWidth {
				continue
			}
			if relDiff(candles[left].High, rimPrice) > cupRimTolerance {
				continue
			}
			bottom, ok := lowestPivotBetween(candles, lows, left, right)
			if !ok {
				continue
			}
			depth := (rimPrice - bottom) / rimPrice
			if depth < cupMinDepth || depth > cupMaxDepth {
				continue
			}
			if handleHolds(candles, right, rimPrice, bottom) {
				return true
			}
		}
	}
	return false
}

// handleHolds verifies no bar after the right rim trades below the cup's
// 50% retracement level.
func handleHolds(candles []models.OHLCV, right int, rimPrice, bottom float64) bool {
	retrace := bottom + (rimPrice-bottom)*0.5
	for i := right + 1; i < len(candles); i++ {
		if candles[i].Low < retrace {
			return false
		}
	}
	return true
}

func lowestPivotBetween(candles []models.OHLCV, lows []int, left, right int) (float64, bool) {
	lowest, found := 0.0, false
	for _, i := range lows {
		if i <= left || i >= right {
			continue
		}
		if !found || candles[i].Low < lowest {
			lowest = candles[i].Low
			found = true
		}
	}
	return lowest, found
}

func relDiff(a, b float64) float64 {
	if b == 0 {
		return 1
	}
	d := (a - b) / b
	if d < 0 {
		return -d
	}
	return d
}
