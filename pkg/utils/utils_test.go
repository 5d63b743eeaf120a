package utils

import "testing"

func TestNormalizeTicker(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"aapl", "AAPL"},
		{"  msft ", "MSFT"},
		{"apple", "AAPL"},
		{"S&P 500", "SPY"},
		{"BRK.B", "BRK-B"},
		{"spy", "SPY"},
	}
	for _, c := range cases {
		if got := NormalizeTicker(c.in); got != c.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsIndexTicker(t *testing.T) {
	if !IsIndexTicker("spy") {
		t.Error("SPY should be an index ticker")
	}
	if IsIndexTicker("AAPL") {
		t.Error("AAPL should not be an index ticker")
	}
}

func TestFormatMarketCap(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2.4e12, "$2.40T"},
		{350e9, "$350.00B"},
		{900e6, "$900.00M"},
		{-5e9, "-$5.00B"},
		{42, "$42.00"},
	}
	for _, c := range cases {
		if got := FormatMarketCap(c.in); got != c.want {
			t.Errorf("FormatMarketCap(%g) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{2500000000, "2.5B"},
		{12300000, "12.3M"},
		{4500, "4.5K"},
		{999, "999"},
	}
	for _, c := range cases {
		if got := FormatVolume(c.in); got != c.want {
			t.Errorf("FormatVolume(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(4.2); got != "+4.20%" {
		t.Errorf("FormatPct(4.2) = %q", got)
	}
	if got := FormatPct(-1.3); got != "-1.30%" {
		t.Errorf("FormatPct(-1.3) = %q", got)
	}
}
