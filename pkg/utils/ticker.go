// Package utils provides common utility functions for StockPulse.
package utils

import "strings"

// Common ticker aliases so users can type company names instead of symbols.
var tickerAliases = map[string]string{
	"APPLE":       "AAPL",
	"MICROSOFT":   "MSFT",
	"GOOGLE":      "GOOGL",
	"ALPHABET":    "GOOGL",
	"AMAZON":      "AMZN",
	"NVIDIA":      "NVDA",
	"META":        "META",
	"FACEBOOK":    "META",
	"TESLA":       "TSLA",
	"NETFLIX":     "NFLX",
	"BERKSHIRE":   "BRK-B",
	"JPMORGAN":    "JPM",
	"JP MORGAN":   "JPM",
	"VISA":        "V",
	"MASTERCARD":  "MA",
	"WALMART":     "WMT",
	"DISNEY":      "DIS",
	"INTEL":       "INTC",
	"AMD":         "AMD",
	"BOEING":      "BA",
	"SP500":       "SPY",
	"S&P500":      "SPY",
	"S&P 500":     "SPY",
	"NASDAQ":      "QQQ",
	"NASDAQ100":   "QQQ",
	"DOW":         "DIA",
	"DOW JONES":   "DIA",
	"RUSSELL":     "IWM",
	"RUSSELL2000": "IWM",
}

// NormalizeTicker uppercases a user-supplied ticker, trims whitespace, and
// resolves well-known company-name aliases to their exchange symbols.
// Class-share dots are rewritten to the dash form Yahoo expects
// (BRK.B -> BRK-B).
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if alias, ok := tickerAliases[t]; ok {
		return alias
	}
	return strings.ReplaceAll(t, ".", "-")
}

// IsIndexTicker reports whether the symbol is one of the broad-market ETFs
// used as relative-strength benchmarks.
func IsIndexTicker(ticker string) bool {
	switch NormalizeTicker(ticker) {
	case "SPY", "QQQ", "DIA", "IWM", "VTI", "VOO":
		return true
	}
	return false
}
