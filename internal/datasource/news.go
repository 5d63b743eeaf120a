package datasource

import (
	"context"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// NewsSource is one configured financial news RSS feed.
type NewsSource struct {
	Name   string
	RSSURL string
}

// DefaultNewsSources lists the configured US market news feeds.
var DefaultNewsSources = []NewsSource{
	{
		Name:   "Yahoo Finance",
		RSSURL: "https://finance.yahoo.com/news/rssindex",
	},
	{
		Name:   "CNBC Markets",
		RSSURL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=20910258",
	},
	{
		Name:   "MarketWatch Top Stories",
		RSSURL: "https://feeds.content.dowjones.io/public/rss/mw_topstories",
	},
	{
		Name:   "Investing.com Stock News",
		RSSURL: "https://www.investing.com/rss/news_25.rss",
	},
}

// News fetches market headlines from configured RSS feeds.
type News struct {
	sources []NewsSource
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a news fetcher with the default source list.
func NewNews() *News {
	return NewNewsWithSources(DefaultNewsSources)
}

// NewNewsWithSources creates a news fetcher with a custom source list.
func NewNewsWithSources(sources []NewsSource) *News {
	parser := gofeed.NewParser()
	parser.UserAgent = DefaultUserAgent
	return &News{
		sources: sources,
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  parser,
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "Market News" }

// GetMarketNews fetches and merges headlines from every configured feed,
// newest first, capped at limit items. A feed that fails to fetch is
// skipped; the method only errors when every feed fails.
func (n *News) GetMarketNews(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 30
	}

	if cached, ok := n.cache.Get("market"); ok {
		items := cached.([]models.NewsItem)
		return capItems(items, limit), nil
	}

	var items []models.NewsItem
	var lastErr error
	for _, src := range n.sources {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		feed, err := n.parser.ParseURLWithContext(src.RSSURL, ctx)
		if err != nil {
			lastErr = err
			continue
		}
		for _, item := range feed.Items {
			ni := models.NewsItem{
				Source: src.Name,
				Title:  item.Title,
				Link:   item.Link,
			}
			if item.PublishedParsed != nil {
				ni.PublishedAt = *item.PublishedParsed
			}
			items = append(items, ni)
		}
	}

	if len(items) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, nil
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	n.cache.Set("market", items)
	return capItems(items, limit), nil
}

func capItems(items []models.NewsItem, limit int) []models.NewsItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
