// Package scanner runs the analyzer across many tickers concurrently and
// ranks the results by composite score.
package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockpulse/internal/analyzer"
	"github.com/seenimoa/stockpulse/internal/datasource"
	"github.com/seenimoa/stockpulse/pkg/models"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

const (
	defaultConcurrency = 4
	defaultBenchmark   = "SPY"

	// historyDays covers the backtest warm-up plus a full evaluation
	// window with calendar slack for weekends and holidays.
	historyDays = 800
)

// Progress is invoked after each ticker completes, successfully or not.
// Implementations must be safe for concurrent calls.
type Progress func(ticker string, done, total int, err error)

// Scanner fan-outs per-ticker analysis over a bounded worker pool.
type Scanner struct {
	source      datasource.DataSource
	concurrency int
	benchmark   string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConcurrency bounds the number of tickers analyzed in parallel.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBenchmark sets the index ticker used for relative strength.
func WithBenchmark(ticker string) Option {
	return func(s *Scanner) {
		if ticker != "" {
			s.benchmark = ticker
		}
	}
}

// New creates a Scanner over the given data source.
func New(source datasource.DataSource, opts ...Option) *Scanner {
	s := &Scanner{
		source:      source,
		concurrency: defaultConcurrency,
		benchmark:   defaultBenchmark,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan analyzes every ticker and returns the results sorted by score,
// highest first. The benchmark history is fetched once and shared across
// workers. Individual ticker failures are reported through the progress
// callback and skipped; Scan only errors when the context is cancelled.
func (s *Scanner) Scan(ctx context.Context, tickers []string, onProgress Progress) ([]*models.AnalysisResult, error) {
	if len(tickers) == 0 {
		return nil, nil
	}

	// Benchmark failures degrade relative strength to neutral instead of
	// aborting the scan.
	benchmark, _ := s.fetchHistory(ctx, s.benchmark)

	var (
		mu      sync.Mutex
		results []*models.AnalysisResult
		done    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, raw := range tickers {
		ticker := utils.NormalizeTicker(raw)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := s.analyzeOne(gctx, ticker, benchmark)

			mu.Lock()
			done++
			n := done
			if err == nil {
				results = append(results, result)
			}
			mu.Unlock()

			if onProgress != nil {
				onProgress(ticker, n, len(tickers), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].TotalScore > results[j].TotalScore
	})
	return results, nil
}

// analyzeOne fetches one ticker's history and quote and runs the analyzer
// without the per-bar backtest, which would dominate scan runtime.
func (s *Scanner) analyzeOne(ctx context.Context, ticker string, benchmark []models.OHLCV) (*models.AnalysisResult, error) {
	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		return nil, err
	}

	opts := analyzer.Options{
		Benchmark:    benchmark,
		SkipBacktest: true,
	}
	if quote, err := s.source.GetQuote(ctx, ticker); err == nil {
		opts.OfficialSMA150 = quote.SMA150
		opts.MarketCap = quote.MarketCap
	}

	result := analyzer.Analyze(ticker, history, opts)
	return result, nil
}

func (s *Scanner) fetchHistory(ctx context.Context, ticker string) ([]models.OHLCV, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -historyDays)
	return s.source.GetHistoricalData(ctx, ticker, from, to, models.Timeframe1Day)
}
