package scanner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/seenimoa/stockpulse/internal/datasource"
	"github.com/seenimoa/stockpulse/pkg/models"
)

// fakeSource serves synthetic histories keyed by ticker.
type fakeSource struct {
	mu        sync.Mutex
	histories map[string][]models.OHLCV
	calls     int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return &models.Quote{Ticker: ticker, MarketCap: 1e9}, nil
}

func (f *fakeSource) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time, tf models.Timeframe) ([]models.OHLCV, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	history, ok := f.histories[ticker]
	if !ok {
		return nil, datasource.ErrTickerNotFound
	}
	return history, nil
}

func (f *fakeSource) GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	return nil, datasource.ErrNotSupported
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]models.TickerMatch, error) {
	return nil, datasource.ErrNotSupported
}

func makeCandles(n int, basePrice float64, trend float64) []models.OHLCV {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.OHLCV, n)
	price := basePrice
	for i := 0; i < n; i++ {
		candles[i] = models.OHLCV{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price,
			High:      price + trend + 2,
			Low:       price - 2,
			Close:     price + trend,
			Volume:    1000000,
		}
		price += trend
	}
	return candles
}

func TestScanRanksByScore(t *testing.T) {
	src := &fakeSource{histories: map[string][]models.OHLCV{
		"UP":   makeCandles(300, 100, 0.5),
		"DOWN": makeCandles(300, 300, -0.5),
		"SPY":  makeCandles(300, 400, 0.05),
	}}

	results, err := New(src, WithConcurrency(2)).Scan(context.Background(), []string{"DOWN", "UP"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Ticker != "UP" {
		t.Errorf("top result = %s, want UP", results[0].Ticker)
	}
	if results[0].TotalScore < results[1].TotalScore {
		t.Error("results not sorted by score descending")
	}
	if results[0].Backtest != nil {
		t.Error("scan results should skip the backtest")
	}
}

func TestScanSkipsFailures(t *testing.T) {
	src := &fakeSource{histories: map[string][]models.OHLCV{
		"GOOD": makeCandles(300, 100, 0.3),
		"SPY":  makeCandles(300, 400, 0.05),
	}}

	var mu sync.Mutex
	var failed []string
	progress := func(ticker string, done, total int, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed = append(failed, ticker)
		}
	}

	results, err := New(src).Scan(context.Background(), []string{"GOOD", "MISSING"}, progress)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Ticker != "GOOD" {
		t.Fatalf("results = %v", results)
	}
	if len(failed) != 1 || failed[0] != "MISSING" {
		t.Errorf("failed tickers = %v, want [MISSING]", failed)
	}
}

func TestScanProgressCounts(t *testing.T) {
	histories := map[string][]models.OHLCV{"SPY": makeCandles(300, 400, 0.05)}
	var tickers []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("T%d", i)
		histories[name] = makeCandles(200, 100, 0.2)
		tickers = append(tickers, name)
	}
	src := &fakeSource{histories: histories}

	var mu sync.Mutex
	seen := 0
	_, err := New(src, WithConcurrency(3)).Scan(context.Background(), tickers,
		func(ticker string, done, total int, err error) {
			mu.Lock()
			seen++
			mu.Unlock()
			if total != 8 {
				t.Errorf("total = %d, want 8", total)
			}
		})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 8 {
		t.Errorf("progress called %d times, want 8", seen)
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{histories: map[string][]models.OHLCV{}}
	_, err := New(src).Scan(ctx, []string{"A", "B"}, nil)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestScanEmpty(t *testing.T) {
	results, err := New(&fakeSource{}).Scan(context.Background(), nil, nil)
	if err != nil || results != nil {
		t.Errorf("empty scan = %v, %v", results, err)
	}
}
