package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

// YFinance implements the DataSource interface using the Yahoo Finance API.
type YFinance struct {
	cache   *Cache
	limiter *RateLimiter
}

// NewYFinance creates a new Yahoo Finance data source.
func NewYFinance() *YFinance {
	return &YFinance{
		cache:   NewCache(5 * time.Minute),
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfSearchResponse struct {
	Quotes []yfSearchQuote `json:"quotes"`
}

type yfSearchQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quoteType"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetQuote returns a near-real-time quote from Yahoo Finance. The SMA150
// field stays zero: Yahoo supplies 50- and 200-day averages only, so the
// scorer falls back to local computation.
func (y *YFinance) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "quote:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.Quote), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("https://query1.finance.yahoo.com/v7/finance/quote?symbols=%s", url.QueryEscape(symbol))
	body, _, err := doGet(ctx, reqURL, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yfinance quote %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfQuoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance quote: %w", err)
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yfinance API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	r := resp.QuoteResponse.Result[0]
	quote := &models.Quote{
		Ticker:     r.Symbol,
		Name:       coalesce(r.LongName, r.ShortName),
		LastPrice:  r.RegularMarketPrice,
		Change:     r.RegularMarketChange,
		ChangePct:  r.RegularMarketChangePercent,
		Open:       r.RegularMarketOpen,
		High:       r.RegularMarketDayHigh,
		Low:        r.RegularMarketDayLow,
		PrevClose:  r.RegularMarketPreviousClose,
		Volume:     r.RegularMarketVolume,
		MarketCap:  r.MarketCap,
		WeekHigh52: r.FiftyTwoWeekHigh,
		WeekLow52:  r.FiftyTwoWeekLow,
		Timestamp:  time.Unix(r.RegularMarketTime, 0),
	}

	y.cache.Set(cacheKey, quote)
	return quote, nil
}

// GetHistoricalData returns OHLCV candles from the Yahoo Finance chart API.
func (y *YFinance) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time, tf models.Timeframe) ([]models.OHLCV, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := fmt.Sprintf("hist:%s:%d:%d:%s", symbol, from.Unix(), to.Unix(), tf)
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]models.OHLCV), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s",
		url.PathEscape(symbol), from.Unix(), to.Unix(), yfInterval(tf),
	)

	body, _, err := doGet(ctx, reqURL, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance chart: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	candles := parseYFCandles(resp.Chart.Result[0])

	y.cache.SetWithTTL(cacheKey, candles, 15*time.Minute)
	return candles, nil
}

// Search resolves a free-text query to candidate equity tickers.
func (y *YFinance) Search(ctx context.Context, query string) ([]models.TickerMatch, error) {
	cacheKey := "search:" + strings.ToLower(query)
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]models.TickerMatch), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v1/finance/search?q=%s&quotesCount=20&newsCount=0",
		url.QueryEscape(query),
	)
	body, _, err := doGet(ctx, reqURL, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yfinance search %q: %w", query, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance search: %w", err)
	}

	matches := make([]models.TickerMatch, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		matches = append(matches, models.TickerMatch{
			Ticker:   q.Symbol,
			Name:     coalesce(q.LongName, q.ShortName),
			Exchange: q.Exchange,
			Type:     q.QuoteType,
		})
	}

	y.cache.SetWithTTL(cacheKey, matches, 30*time.Minute)
	return matches, nil
}

// --- Helpers ---

// parseYFCandles flattens the columnar chart payload into candles,
// skipping bars with missing closes (halts, partial sessions).
func parseYFCandles(result yfChartResult) []models.OHLCV {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	candles := make([]models.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := models.OHLCV{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			c.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			c.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			c.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			c.Volume = *q.Volume[i]
		}
		candles = append(candles, c)
	}
	return candles
}

func yfInterval(tf models.Timeframe) string {
	switch tf {
	case models.Timeframe1Week:
		return "1wk"
	case models.Timeframe1Mon:
		return "1mo"
	default:
		return "1d"
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
