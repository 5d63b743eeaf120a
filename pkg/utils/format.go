package utils

import (
	"fmt"
	"math"
)

// FormatPct formats a percentage with an explicit sign: "+4.2%", "-1.3%".
func FormatPct(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}

// FormatMarketCap formats a dollar market cap in compact notation:
// 2.4e12 -> "$2.40T", 350e9 -> "$350.00B", 900e6 -> "$900.00M".
func FormatMarketCap(cap float64) string {
	negative := cap < 0
	cap = math.Abs(cap)

	prefix := "$"
	if negative {
		prefix = "-$"
	}

	switch {
	case cap >= 1e12:
		return fmt.Sprintf("%s%.2fT", prefix, cap/1e12)
	case cap >= 1e9:
		return fmt.Sprintf("%s%.2fB", prefix, cap/1e9)
	case cap >= 1e6:
		return fmt.Sprintf("%s%.2fM", prefix, cap/1e6)
	case cap >= 1e3:
		return fmt.Sprintf("%s%.2fK", prefix, cap/1e3)
	default:
		return fmt.Sprintf("%s%.2f", prefix, cap)
	}
}

// FormatVolume formats a share count in compact notation: 12.3M, 456.0K.
func FormatVolume(volume int64) string {
	v := float64(volume)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%d", volume)
	}
}

// FormatPrice formats a price with two decimals and a dollar sign.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}
