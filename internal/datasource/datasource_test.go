package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	c.SetWithTTL("k", "v", -time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
	c.Cleanup()
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", 1)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Error("invalidated entry should be gone")
	}
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
	}
	// Fourth token is unavailable; a cancelled context must unblock.
	cancelled, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	if err := rl.Wait(cancelled); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait on empty bucket = %v, want deadline exceeded", err)
	}
}

func TestDoGetHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, status, err := doGet(context.Background(), srv.URL, nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type = %T, want *ErrHTTP", err)
	}
}

func TestDoGetRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, _, err := doGet(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
}

func TestParseYFCandles(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	i := func(v int64) *int64 { return &v }

	result := yfChartResult{
		Timestamp: []int64{1700000000, 1700086400, 1700172800},
		Indicators: yfIndicators{
			Quote: []yfOHLCV{{
				Open:   []*float64{f(10), f(11), nil},
				High:   []*float64{f(12), f(13), nil},
				Low:    []*float64{f(9), f(10), nil},
				Close:  []*float64{f(11), nil, f(12)},
				Volume: []*int64{i(100), i(200), nil},
			}},
		},
	}

	candles := parseYFCandles(result)
	// The second bar has a nil close and must be dropped.
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	if candles[0].Close != 11 || candles[0].Volume != 100 {
		t.Errorf("first candle = %+v", candles[0])
	}
	if candles[1].Close != 12 || candles[1].Open != 0 {
		t.Errorf("second candle = %+v", candles[1])
	}
}

func TestYFInterval(t *testing.T) {
	if got := yfInterval(models.Timeframe1Day); got != "1d" {
		t.Errorf("1d interval = %s", got)
	}
	if got := yfInterval(models.Timeframe1Week); got != "1wk" {
		t.Errorf("1w interval = %s", got)
	}
	if got := yfInterval(models.Timeframe("bogus")); got != "1d" {
		t.Errorf("fallback interval = %s", got)
	}
}

func TestCoalesce(t *testing.T) {
	if got := coalesce("", "  ", "Acme Corp"); got != "Acme Corp" {
		t.Errorf("coalesce = %q", got)
	}
	if got := coalesce(); got != "" {
		t.Errorf("empty coalesce = %q", got)
	}
}
