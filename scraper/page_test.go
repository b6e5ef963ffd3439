package scraper_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/leninka/config"
	"github.com/use-agent/leninka/models"
	"github.com/use-agent/leninka/scraper"
	"github.com/use-agent/leninka/scraper/scrapertest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCrawlConfig() config.CrawlConfig {
	return config.CrawlConfig{
		BaseURL:           "https://example.test/search",
		Query:             "NodeJS",
		Pages:             1,
		NavigationTimeout: time.Second,
		RenderTimeout:     200 * time.Millisecond,
		PollInterval:      5 * time.Millisecond,
		Container:         "#search-results",
	}
}

func TestListURL(t *testing.T) {
	tests := []struct {
		base, query string
		page        int
		want        string
	}{
		{"https://cyberleninka.ru/search", "NodeJS", 1, "https://cyberleninka.ru/search?q=NodeJS&page=1"},
		{"https://cyberleninka.ru/search", "NodeJS", 5, "https://cyberleninka.ru/search?q=NodeJS&page=5"},
		{"https://example.test/s", "node js", 2, "https://example.test/s?q=node+js&page=2"},
		{"https://example.test/s?lang=ru", "go", 3, "https://example.test/s?lang=ru&q=go&page=3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scraper.ListURL(tt.base, tt.query, tt.page))
	}
}

func TestFetchPage_WaitsForContainer(t *testing.T) {
	cfg := testCrawlConfig()
	url := scraper.ListURL(cfg.BaseURL, cfg.Query, 2)
	s := &scrapertest.Session{
		Container: cfg.Container,
		Pages:     map[string]*scrapertest.Page{url: {Markup: "<li>x</li>", Pending: 3}},
	}

	markup, err := scraper.NewPageFetcher(cfg, quietLogger()).FetchPage(context.Background(), s, 2)
	require.NoError(t, err)
	assert.Equal(t, "<li>x</li>", markup)
	assert.Equal(t, []string{url}, s.Visited())

	queries := 0
	for _, e := range s.Events() {
		if e == "query "+cfg.Container {
			queries++
		}
	}
	assert.Equal(t, 4, queries, "three misses then a hit")
}

func TestFetchPage_RenderTimeout(t *testing.T) {
	cfg := testCrawlConfig()
	url := scraper.ListURL(cfg.BaseURL, cfg.Query, 1)
	s := &scrapertest.Session{Pages: map[string]*scrapertest.Page{url: {NeverRenders: true}}}

	start := time.Now()
	_, err := scraper.NewPageFetcher(cfg, quietLogger()).FetchPage(context.Background(), s, 1)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeRenderTimeout, models.CodeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchPage_NavigationError(t *testing.T) {
	cfg := testCrawlConfig()
	url := scraper.ListURL(cfg.BaseURL, cfg.Query, 1)
	dns := errors.New("net::ERR_NAME_NOT_RESOLVED")
	s := &scrapertest.Session{Pages: map[string]*scrapertest.Page{url: {NavigateErr: dns}}}

	_, err := scraper.NewPageFetcher(cfg, quietLogger()).FetchPage(context.Background(), s, 1)
	assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(err))
	assert.ErrorIs(t, err, dns)
}

func TestFetchPage_QueryFault(t *testing.T) {
	cfg := testCrawlConfig()
	url := scraper.ListURL(cfg.BaseURL, cfg.Query, 1)
	crash := errors.New("target crashed")
	s := &scrapertest.Session{Pages: map[string]*scrapertest.Page{url: {QueryErr: crash}}}

	_, err := scraper.NewPageFetcher(cfg, quietLogger()).FetchPage(context.Background(), s, 1)
	assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(err))
	assert.ErrorIs(t, err, crash)
}

func TestFetchPage_InnerHTMLFault(t *testing.T) {
	cfg := testCrawlConfig()
	url := scraper.ListURL(cfg.BaseURL, cfg.Query, 1)
	gone := errors.New("node detached")
	s := &scrapertest.Session{Pages: map[string]*scrapertest.Page{url: {InnerErr: gone}}}

	_, err := scraper.NewPageFetcher(cfg, quietLogger()).FetchPage(context.Background(), s, 1)
	assert.Equal(t, models.ErrCodeExtraction, models.CodeOf(err))
	assert.ErrorIs(t, err, gone)
}
