// Package api provides the HTTP REST API server for StockPulse.
//
// It exposes endpoints for stock analysis, quotes, backtesting, watchlist
// scans, portfolio management, news, chart rendering, and WebSocket
// streaming of scan progress.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

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

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	source    datasource.DataSource
	news      *datasource.News
	positions *portfolio.Store
	wsHub     *WSHub

	scanMu      sync.Mutex
	scanRunning bool
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	store, err := portfolio.NewStore(cfg.Portfolio.Path)
	if err != nil {
		return nil, fmt.Errorf("portfolio store: %w", err)
	}

	news := datasource.NewNews()
	if len(cfg.Datasource.NewsFeedURLs) > 0 {
		var sources []datasource.NewsSource
		for _, u := range cfg.Datasource.NewsFeedURLs {
			sources = append(sources, datasource.NewsSource{Name: u, RSSURL: u})
		}
		news = datasource.NewNewsWithSources(sources)
	}

	srv := &Server{
		cfg:       cfg,
		source:    datasource.NewYFinance(),
		news:      news,
		positions: store,
		wsHub:     NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Get("/analyze/{ticker}", s.handleAnalyze)
		r.Get("/backtest/{ticker}", s.handleBacktest)

		// Market data
		r.Get("/quote/{ticker}", s.handleQuote)
		r.Get("/ohlcv/{ticker}", s.handleOHLCV)

		// Watchlist scan
		r.Post("/scan", s.handleScan)

		// Portfolio positions
		r.Get("/positions", s.handleGetPositions)
		r.Post("/positions", s.handleAddPosition)
		r.Delete("/positions/{ticker}", s.handleRemovePosition)
		r.Get("/advise/{ticker}", s.handleAdvise)

		// News & search
		r.Get("/news", s.handleNews)
		r.Get("/search", s.handleSearch)

		// Chart rendering (PNG)
		r.Get("/chart/price/{ticker}", s.handlePriceChart)
		r.Get("/chart/equity/{ticker}", s.handleEquityChart)
		r.Get("/chart/scores/{ticker}", s.handleScoreChart)

		// WebSocket (scan progress streaming)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ScanRequest is the body for POST /api/v1/scan. An empty ticker list
// falls back to the configured watchlist.
type ScanRequest struct {
	Tickers []string `json:"tickers,omitempty"`
}

// AddPositionRequest is the body for POST /api/v1/positions.
type AddPositionRequest struct {
	Ticker   string  `json:"ticker"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Notes    string  `json:"notes,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
			"source":  s.source.Name(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch history: %v", err))
		return
	}

	opts := analyzer.Options{
		Benchmark:    s.fetchBenchmark(ctx),
		SkipBacktest: r.URL.Query().Get("backtest") == "false",
	}
	if quote, err := s.source.GetQuote(ctx, ticker); err == nil {
		opts.OfficialSMA150 = quote.SMA150
		opts.MarketCap = quote.MarketCap
	}

	result := analyzer.Analyze(ticker, history, opts)

	// Profile enrichment is best-effort; the analysis stands without it.
	if profile, err := s.source.GetProfile(ctx, ticker); err == nil {
		result.CompanyName = profile.Name
		result.Sector = profile.Sector
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]interface{}{
			"ticker": ticker,
			"score":  result.TotalScore,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
	})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch history: %v", err))
		return
	}
	if len(history) < 50 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("insufficient data: %d bars", len(history)))
		return
	}

	engine := backtest.NewEngine(backtest.DefaultConfig())
	result := engine.Run(history, s.fetchBenchmark(ctx))

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.source.GetQuote(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    quote,
	})
}

func (s *Server) handleOHLCV(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	days := queryInt(r, "days", 365)
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	candles, err := s.source.GetHistoricalData(ctx, ticker, from, to, models.Timeframe1Day)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    candles,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = s.cfg.Scan.Watchlist
	}
	if len(tickers) == 0 {
		writeError(w, http.StatusBadRequest, "no tickers given and no configured watchlist")
		return
	}
	for i, t := range tickers {
		tickers[i] = utils.NormalizeTicker(t)
	}

	// One scan at a time; overlapping scans would double the fetch load
	// and interleave progress events on the WebSocket.
	s.scanMu.Lock()
	if s.scanRunning {
		s.scanMu.Unlock()
		writeError(w, http.StatusConflict, "a scan is already running")
		return
	}
	s.scanRunning = true
	s.scanMu.Unlock()
	defer func() {
		s.scanMu.Lock()
		s.scanRunning = false
		s.scanMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	sc := scanner.New(s.source,
		scanner.WithConcurrency(s.cfg.Scan.Concurrency),
		scanner.WithBenchmark(s.cfg.Analysis.BenchmarkTicker),
	)

	progress := func(ticker string, done, total int, err error) {
		data := map[string]interface{}{
			"ticker": ticker,
			"done":   done,
			"total":  total,
		}
		if err != nil {
			data["error"] = err.Error()
		}
		s.wsHub.Broadcast(WSMessage{Type: "scan_progress", Data: data})
	}

	results, err := sc.Scan(ctx, tickers, progress)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "scan_complete",
		Data: map[string]interface{}{"count": len(results)},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    results,
	})
}

// ============================================================
// Portfolio handlers
// ============================================================

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.positions.List(),
	})
}

func (s *Server) handleAddPosition(w http.ResponseWriter, r *http.Request) {
	var req AddPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	pos, err := s.positions.Add(utils.NormalizeTicker(req.Ticker), req.Price, req.Quantity, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    pos,
	})
}

func (s *Server) handleRemovePosition(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	removed, err := s.positions.Remove(ticker)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no position for %s", ticker))
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"removed": ticker},
	})
}

func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	pos, ok := s.positions.Get(ticker)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no position for %s", ticker))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch history: %v", err))
		return
	}

	result := analyzer.Analyze(ticker, history, analyzer.Options{
		Benchmark:    s.fetchBenchmark(ctx),
		SkipBacktest: true,
	})
	advice := advisor.Advise(result, pos)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"ticker":   ticker,
			"position": pos,
			"score":    result.TotalScore,
			"advice":   advice,
		},
	})
}

// ============================================================
// News & search handlers
// ============================================================

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items, err := s.news.GetMarketNews(ctx, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    items,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    []models.TickerMatch{},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	matches, err := s.source.Search(ctx, q)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    matches,
	})
}

// ============================================================
// Chart handlers
// ============================================================

func (s *Server) handlePriceChart(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	bars := queryInt(r, "bars", 120)

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch history: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := report.RenderPriceChart(ticker, history, bars, w); err != nil {
		log.Printf("price chart for %s: %v", ticker, err)
	}
}

func (s *Server) handleEquityChart(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch history: %v", err))
		return
	}

	engine := backtest.NewEngine(backtest.DefaultConfig())
	result := engine.Run(history, s.fetchBenchmark(ctx))
	if len(result.EquityCurve) == 0 {
		writeError(w, http.StatusBadRequest, "not enough history to backtest")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := report.RenderEquityCurve(ticker, result, w); err != nil {
		log.Printf("equity chart for %s: %v", ticker, err)
	}
}

func (s *Server) handleScoreChart(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	history, err := s.fetchHistory(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch history: %v", err))
		return
	}

	result := analyzer.Analyze(ticker, history, analyzer.Options{
		Benchmark:    s.fetchBenchmark(ctx),
		SkipBacktest: true,
	})
	if len(result.ScoreHistory) == 0 {
		writeError(w, http.StatusBadRequest, "not enough history for a score trend")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := report.RenderScoreTrend(ticker, result.ScoreHistory, w); err != nil {
		log.Printf("score chart for %s: %v", ticker, err)
	}
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) fetchHistory(ctx context.Context, ticker string) ([]models.OHLCV, error) {
	days := s.cfg.Datasource.HistoryDays
	if days <= 0 {
		days = 800
	}
	to := time.Now()
	return s.source.GetHistoricalData(ctx, ticker, to.AddDate(0, 0, -days), to, models.Timeframe1Day)
}

// fetchBenchmark returns the benchmark index history, or nil when it
// cannot be fetched. Relative strength degrades to neutral on nil.
func (s *Server) fetchBenchmark(ctx context.Context) []models.OHLCV {
	bench := s.cfg.Analysis.BenchmarkTicker
	if bench == "" {
		bench = "SPY"
	}
	candles, err := s.fetchHistory(ctx, bench)
	if err != nil {
		log.Printf("benchmark %s unavailable: %v", bench, err)
		return nil
	}
	return candles
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
