// StockPulse: technical stock screener and analysis engine.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/stockpulse/api"
	"github.com/seenimoa/stockpulse/internal/advisor"
	"github.com/seenimoa/stockpulse/internal/analyzer"
	"github.com/seenimoa/stockpulse/internal/backtest"
	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/internal/datasource"
	"github.com/seenimoa/stockpulse/internal/portfolio"
	"github.com/seenimoa/stockpulse/internal/report"
	"github.com/seenimoa/stockpulse/internal/scanner"
	"github.com/seenimoa/stockpulse/pkg/models"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockpulse",
	Short: "StockPulse — technical stock screener and analysis engine",
	Long: `StockPulse scores stocks 0-10 from daily price history using a
weighted blend of technical indicators (RSI, MACD, moving averages,
Bollinger/Keltner squeeze, RSI divergence, cup-and-handle detection,
relative strength vs a benchmark index), backtests the resulting
entry signals, and advises on open positions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show version and effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  StockPulse — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()
		fmt.Println("  Configuration:")
		fmt.Printf("    Data Source:  %s (cache %ds, %d req/s, %d days history)\n",
			cfg.Datasource.Provider, cfg.Datasource.CacheTTL, cfg.Datasource.RateLimit, cfg.Datasource.HistoryDays)
		fmt.Printf("    Benchmark:    %s\n", cfg.Analysis.BenchmarkTicker)
		fmt.Printf("    Watchlist:    %s\n", strings.Join(cfg.Scan.Watchlist, ", "))
		fmt.Printf("    Concurrency:  %d\n", cfg.Scan.Concurrency)
		fmt.Printf("    Portfolio:    %s\n", cfg.Portfolio.Path)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("StockPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Run full technical analysis on a stock",
	Long:  "Score a stock 0-10 across all technical factors, with risk plan and backtest.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		noBacktest, _ := cmd.Flags().GetBool("no-backtest")
		chartPath, _ := cmd.Flags().GetString("chart")

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
		defer cancel()

		src := datasource.NewYFinance()
		history, err := fetchHistory(ctx, src, ticker)
		if err != nil {
			return fmt.Errorf("fetch history for %s: %w", ticker, err)
		}

		opts := analyzer.Options{
			Benchmark:    fetchBenchmark(ctx, src),
			SkipBacktest: noBacktest || cfg.Analysis.SkipBacktest,
		}
		if quote, err := src.GetQuote(ctx, ticker); err == nil {
			opts.OfficialSMA150 = quote.SMA150
			opts.MarketCap = quote.MarketCap
		}

		result := analyzer.Analyze(ticker, history, opts)
		if profile, err := src.GetProfile(ctx, ticker); err == nil {
			result.CompanyName = profile.Name
			result.Sector = profile.Sector
		}

		printAnalysis(result)

		if chartPath != "" {
			if err := writePriceChart(ticker, history, chartPath); err != nil {
				return err
			}
			fmt.Printf("\n📈 Price chart written to %s\n", chartPath)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("no-backtest", false, "skip the backtest simulation")
	analyzeCmd.Flags().String("chart", "", "write a price chart PNG to this path")
}

// --- Backtest Command ---

var backtestCmd = &cobra.Command{
	Use:   "backtest [ticker]",
	Short: "Backtest the scoring strategy on a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		chartPath, _ := cmd.Flags().GetString("chart")

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
		defer cancel()

		src := datasource.NewYFinance()
		history, err := fetchHistory(ctx, src, ticker)
		if err != nil {
			return fmt.Errorf("fetch history for %s: %w", ticker, err)
		}
		if len(history) < 50 {
			return fmt.Errorf("insufficient data for %s: %d bars", ticker, len(history))
		}

		engine := backtest.NewEngine(backtest.DefaultConfig())
		result := engine.Run(history, fetchBenchmark(ctx, src))

		printBacktest(ticker, result)

		if chartPath != "" {
			f, err := os.Create(chartPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := report.RenderEquityCurve(ticker, result, f); err != nil {
				return err
			}
			fmt.Printf("\n📈 Equity curve written to %s\n", chartPath)
		}
		return nil
	},
}

func init() {
	backtestCmd.Flags().String("chart", "", "write an equity curve PNG to this path")
}

// --- Scan Command ---

var scanCmd = &cobra.Command{
	Use:   "scan [tickers...]",
	Short: "Scan and rank a list of stocks by composite score",
	Long:  "Analyze many tickers concurrently and rank them by score. Without arguments the configured watchlist is scanned.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers := args
		if len(tickers) == 0 {
			tickers = cfg.Scan.Watchlist
		}
		if len(tickers) == 0 {
			return fmt.Errorf("no tickers given and no watchlist configured")
		}
		for i, t := range tickers {
			tickers[i] = utils.NormalizeTicker(t)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		fmt.Printf("🔍 Scanning %d tickers (benchmark %s)...\n\n", len(tickers), cfg.Analysis.BenchmarkTicker)

		sc := scanner.New(datasource.NewYFinance(),
			scanner.WithConcurrency(cfg.Scan.Concurrency),
			scanner.WithBenchmark(cfg.Analysis.BenchmarkTicker),
		)

		results, err := sc.Scan(ctx, tickers, func(ticker string, done, total int, err error) {
			if err != nil {
				fmt.Printf("  [%d/%d] %-8s ⚠️  %v\n", done, total, ticker, err)
				return
			}
			fmt.Printf("  [%d/%d] %-8s done\n", done, total, ticker)
		})
		if err != nil {
			return err
		}

		printScanTable(results)
		return nil
	},
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [ticker]",
	Short: "Show a near-real-time quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		quote, err := datasource.NewYFinance().GetQuote(ctx, ticker)
		if err != nil {
			return fmt.Errorf("fetch quote for %s: %w", ticker, err)
		}

		fmt.Printf("💹 %s (%s)\n", quote.Name, quote.Ticker)
		fmt.Printf("   Price:      %s (%s)\n", utils.FormatPrice(quote.LastPrice), utils.FormatPct(quote.ChangePct))
		fmt.Printf("   Day Range:  %s - %s\n", utils.FormatPrice(quote.Low), utils.FormatPrice(quote.High))
		fmt.Printf("   52W Range:  %s - %s\n", utils.FormatPrice(quote.WeekLow52), utils.FormatPrice(quote.WeekHigh52))
		fmt.Printf("   Volume:     %s\n", utils.FormatVolume(quote.Volume))
		if quote.MarketCap > 0 {
			fmt.Printf("   Market Cap: %s\n", utils.FormatMarketCap(quote.MarketCap))
		}
		return nil
	},
}

// --- Positions Commands ---

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Manage tracked portfolio positions",
}

var positionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := portfolio.NewStore(cfg.Portfolio.Path)
		if err != nil {
			return err
		}

		positions := store.List()
		if len(positions) == 0 {
			fmt.Println("No tracked positions.")
			return nil
		}

		fmt.Printf("%-8s %12s %10s %12s  %s\n", "TICKER", "AVG ENTRY", "QTY", "ENTERED", "NOTES")
		for _, p := range positions {
			fmt.Printf("%-8s %12s %10.2f %12s  %s\n",
				p.Ticker, utils.FormatPrice(p.AvgEntryPrice), p.Quantity,
				p.EntryDate.Format("2006-01-02"), p.Notes)
		}
		return nil
	},
}

var positionsAddCmd = &cobra.Command{
	Use:   "add [ticker]",
	Short: "Add to a position (averages into an existing one)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, _ := cmd.Flags().GetFloat64("price")
		qty, _ := cmd.Flags().GetFloat64("quantity")
		notes, _ := cmd.Flags().GetString("notes")

		store, err := portfolio.NewStore(cfg.Portfolio.Path)
		if err != nil {
			return err
		}

		pos, err := store.Add(utils.NormalizeTicker(args[0]), price, qty, notes)
		if err != nil {
			return err
		}

		fmt.Printf("✅ %s: %.2f shares @ %s avg\n", pos.Ticker, pos.Quantity, utils.FormatPrice(pos.AvgEntryPrice))
		return nil
	},
}

var positionsRemoveCmd = &cobra.Command{
	Use:   "remove [ticker]",
	Short: "Remove a tracked position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := portfolio.NewStore(cfg.Portfolio.Path)
		if err != nil {
			return err
		}

		ticker := utils.NormalizeTicker(args[0])
		removed, err := store.Remove(ticker)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no position for %s", ticker)
		}
		fmt.Printf("✅ Removed %s\n", ticker)
		return nil
	},
}

func init() {
	positionsAddCmd.Flags().Float64("price", 0, "entry price per share (required)")
	positionsAddCmd.Flags().Float64("quantity", 0, "number of shares (required)")
	positionsAddCmd.Flags().String("notes", "", "free-form note for the position")
	_ = positionsAddCmd.MarkFlagRequired("price")
	_ = positionsAddCmd.MarkFlagRequired("quantity")

	positionsCmd.AddCommand(positionsListCmd)
	positionsCmd.AddCommand(positionsAddCmd)
	positionsCmd.AddCommand(positionsRemoveCmd)
}

// --- Advise Command ---

var adviseCmd = &cobra.Command{
	Use:   "advise [ticker]",
	Short: "Advise on an open position (BUY MORE / HOLD / TAKE PROFIT / CUT LOSS)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])

		store, err := portfolio.NewStore(cfg.Portfolio.Path)
		if err != nil {
			return err
		}
		pos, ok := store.Get(ticker)
		if !ok {
			return fmt.Errorf("no position for %s; add one with 'stockpulse positions add'", ticker)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		src := datasource.NewYFinance()
		history, err := fetchHistory(ctx, src, ticker)
		if err != nil {
			return fmt.Errorf("fetch history for %s: %w", ticker, err)
		}

		result := analyzer.Analyze(ticker, history, analyzer.Options{
			Benchmark:    fetchBenchmark(ctx, src),
			SkipBacktest: true,
		})
		advice := advisor.Advise(result, pos)

		fmt.Printf("💼 %s — %.2f shares @ %s avg\n\n", ticker, pos.Quantity, utils.FormatPrice(pos.AvgEntryPrice))
		fmt.Printf("   Current Price: %s (%s since entry)\n", utils.FormatPrice(result.CurrentPrice), utils.FormatPct(advice.PnLPercentage))
		fmt.Printf("   Score:         %.1f / 10 (%s)\n", result.TotalScore, result.Recommendation)
		fmt.Printf("   Weekly Trend:  %s\n\n", result.TechnicalData.WeeklyTrend)
		fmt.Printf("   ➡️  %s — %s\n", advice.Action, advice.Reason)
		fmt.Printf("       Suggested stop:   %s\n", utils.FormatPrice(advice.SuggestedStop))
		fmt.Printf("       Suggested target: %s\n", utils.FormatPrice(advice.SuggestedTarget))
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show the latest market headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		items, err := datasource.NewNews().GetMarketNews(ctx, limit)
		if err != nil {
			return fmt.Errorf("fetch news: %w", err)
		}

		for _, item := range items {
			fmt.Printf("📰 [%s] %s\n   %s (%s)\n\n",
				item.Source, item.Title, item.Link,
				item.PublishedAt.Format("Jan 2 15:04"))
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 15, "maximum number of headlines")
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for tickers by company name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		matches, err := datasource.NewYFinance().Search(ctx, strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, m := range matches {
			fmt.Printf("  %-8s %-40s %s\n", m.Ticker, m.Name, m.Exchange)
		}
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting StockPulse API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- helpers ---

func fetchHistory(ctx context.Context, src datasource.DataSource, ticker string) ([]models.OHLCV, error) {
	days := cfg.Datasource.HistoryDays
	if days <= 0 {
		days = 800
	}
	to := time.Now()
	return src.GetHistoricalData(ctx, ticker, to.AddDate(0, 0, -days), to, models.Timeframe1Day)
}

func fetchBenchmark(ctx context.Context, src datasource.DataSource) []models.OHLCV {
	bench := cfg.Analysis.BenchmarkTicker
	if bench == "" {
		bench = "SPY"
	}
	candles, err := fetchHistory(ctx, src, bench)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  benchmark %s unavailable: %v\n", bench, err)
		return nil
	}
	return candles
}

func writePriceChart(ticker string, history []models.OHLCV, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.RenderPriceChart(ticker, history, 120, f)
}

func printAnalysis(result *models.AnalysisResult) {
	name := result.Ticker
	if result.CompanyName != "" {
		name = fmt.Sprintf("%s (%s)", result.CompanyName, result.Ticker)
	}

	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("  %s\n", name)
	if result.Sector != "" {
		fmt.Printf("  Sector: %s\n", result.Sector)
	}
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("  Price:          %s (%s)\n", utils.FormatPrice(result.CurrentPrice), utils.FormatPct(result.ChangePercent))
	if result.MarketCap > 0 {
		fmt.Printf("  Market Cap:     %s\n", utils.FormatMarketCap(result.MarketCap))
	}
	fmt.Printf("  Score:          %.1f / 10\n", result.TotalScore)
	fmt.Printf("  Recommendation: %s\n", result.Recommendation)
	if result.IsPrimeSetup {
		fmt.Println("  🎯 PRIME SETUP")
	}
	if result.IsTrendEntry {
		fmt.Println("  📈 TREND ENTRY")
	}
	fmt.Println()

	if len(result.Indicators) > 0 {
		fmt.Printf("  %-20s %6s %7s  %s\n", "FACTOR", "SCORE", "WEIGHT", "VALUE")
		for _, ind := range result.Indicators {
			marker := "  "
			if ind.Bullish {
				marker = "🟢"
			}
			fmt.Printf("  %-20s %6.1f %6.0f%%  %s %s\n", ind.Name, ind.Score, ind.Weight*100, marker, ind.Value)
		}
		fmt.Println()
	}

	snap := result.TechnicalData
	fmt.Printf("  Weekly Trend: %-8s  Squeeze: %-5v  Divergence: %s\n",
		snap.WeeklyTrend, snap.SqueezeOn, orNone(string(snap.RSIDivergence)))
	fmt.Printf("  Support: %s   Resistance: %s\n",
		utils.FormatPrice(snap.Support), utils.FormatPrice(snap.Resistance))
	fmt.Println()

	plan := result.RiskPlan
	if plan.EntryPrice > 0 {
		fmt.Println("  Risk Plan:")
		fmt.Printf("    Entry:  %s (%s)\n", utils.FormatPrice(plan.EntryPrice), plan.EntrySource)
		fmt.Printf("    Stop:   %s (%s)\n", utils.FormatPrice(plan.StopLoss), plan.StopSource)
		fmt.Printf("    Target: %s (%s, %.0f:1)\n", utils.FormatPrice(plan.TakeProfit), plan.TargetSource, plan.RiskReward)
	}

	if result.Backtest != nil && result.Backtest.TotalTrades > 0 {
		fmt.Println()
		printBacktest(result.Ticker, result.Backtest)
	}

	if len(result.ScoreHistory) > 1 {
		fmt.Println()
		fmt.Printf("  Score trend: ")
		for i, s := range result.ScoreHistory {
			if i > 0 {
				fmt.Print(" → ")
			}
			fmt.Printf("%.1f", s)
		}
		fmt.Println()
	}
	fmt.Println("═══════════════════════════════════════════════════")
}

func printBacktest(ticker string, result *models.BacktestResult) {
	fmt.Println("  ═════════════════ BACKTEST ═════════════════")
	fmt.Printf("  %s — %d trades, status %s\n", ticker, result.TotalTrades, result.CurrentStatus)
	fmt.Printf("    Win Rate:      %.1f%% (%dW / %dL)\n", result.WinRate, result.WinningTrades, result.LosingTrades)
	fmt.Printf("    Strategy:      %s\n", utils.FormatPct(result.TotalReturn))
	fmt.Printf("    Buy & Hold:    %s\n", utils.FormatPct(result.ActualReturn))
	fmt.Printf("    Alpha:         %s\n", utils.FormatPct(result.AlphaReturn))
	fmt.Printf("    Max Drawdown:  %.1f%%\n", result.MaxDrawdownPct)
	if result.ProfitFactor > 0 {
		fmt.Printf("    Profit Factor: %.2f\n", result.ProfitFactor)
	}
	fmt.Println("  ════════════════════════════════════════════")
}

func printScanTable(results []*models.AnalysisResult) {
	if len(results) == 0 {
		fmt.Println("\nNo results.")
		return
	}

	fmt.Println()
	fmt.Printf("%-8s %7s %12s %9s %-12s %-8s %s\n",
		"TICKER", "SCORE", "PRICE", "CHANGE", "RECO", "WEEKLY", "FLAGS")
	for _, r := range results {
		var flags []string
		if r.IsPrimeSetup {
			flags = append(flags, "PRIME")
		}
		if r.IsTrendEntry {
			flags = append(flags, "TREND")
		}
		if r.TechnicalData.IsCupHandle {
			flags = append(flags, "CUP")
		}
		if r.TechnicalData.SqueezeOn {
			flags = append(flags, "SQZ")
		}
		fmt.Printf("%-8s %7.1f %12s %9s %-12s %-8s %s\n",
			r.Ticker, r.TotalScore, utils.FormatPrice(r.CurrentPrice),
			utils.FormatPct(r.ChangePercent), r.Recommendation,
			r.TechnicalData.WeeklyTrend, strings.Join(flags, ","))
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
