package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/stockpulse/pkg/models"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

// GetProfile scrapes descriptive company data from the Yahoo Finance
// profile page. Scraping is a fallback surface: selectors are kept loose
// and missing fields degrade to empty strings rather than errors.
func (y *YFinance) GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	symbol := utils.NormalizeTicker(ticker)

	cacheKey := "profile:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.CompanyProfile), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("https://finance.yahoo.com/quote/%s/profile", url.PathEscape(symbol))
	body, status, err := doGet(ctx, reqURL, nil)
	if err != nil {
		if status == 404 {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
		}
		return nil, fmt.Errorf("profile page %s: %w", symbol, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse profile page: %w", err)
	}

	profile := &models.CompanyProfile{Ticker: symbol}

	if h1 := doc.Find("h1").First(); h1 != nil {
		// Page titles look like "Acme Corp (ACME)".
		name := strings.TrimSpace(h1.Text())
		if idx := strings.LastIndex(name, "("); idx > 0 {
			name = strings.TrimSpace(name[:idx])
		}
		profile.Name = name
	}

	// Sector and industry sit in dt/dd-style stat rows; fall back to
	// label-adjacent spans used by older page revisions.
	doc.Find("span").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		switch label {
		case "Sector:", "Sector":
			if profile.Sector == "" {
				profile.Sector = strings.TrimSpace(s.Next().Text())
			}
		case "Industry:", "Industry":
			if profile.Industry == "" {
				profile.Industry = strings.TrimSpace(s.Next().Text())
			}
		}
	})

	if href, ok := doc.Find("a[data-testid=company-website-link]").Attr("href"); ok {
		profile.Website = href
	}

	y.cache.SetWithTTL(cacheKey, profile, time.Hour)
	return profile, nil
}
