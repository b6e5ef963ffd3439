package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/leninka/config"
	"github.com/use-agent/leninka/models"
	"github.com/use-agent/leninka/poll"
)

// PageFetcher navigates a Session to one listing page and returns the
// markup of the results container once it has rendered.
type PageFetcher struct {
	baseURL       string
	query         string
	container     string
	navTimeout    time.Duration
	renderTimeout time.Duration
	pollInterval  time.Duration
	logger        *slog.Logger
}

// NewPageFetcher creates a PageFetcher from the crawl configuration.
func NewPageFetcher(cfg config.CrawlConfig, logger *slog.Logger) *PageFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageFetcher{
		baseURL:       cfg.BaseURL,
		query:         cfg.Query,
		container:     cfg.Container,
		navTimeout:    cfg.NavigationTimeout,
		renderTimeout: cfg.RenderTimeout,
		pollInterval:  cfg.PollInterval,
		logger:        logger,
	}
}

// ListURL builds base?q=<query>&page=<page>. The query is escaped; page is 1-based.
func ListURL(base, query string, page int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "q=" + url.QueryEscape(query) + "&page=" + strconv.Itoa(page)
}

// URL returns the listing URL for page.
func (f *PageFetcher) URL(page int) string {
	return ListURL(f.baseURL, f.query, page)
}

// FetchPage loads listing page and blocks until the results container exists,
// bounded by the render timeout. It returns the container's inner markup.
//
// Lifecycle:
//
//  1. Navigate        – bounded by the navigation timeout, NAVIGATION_FAILED on error
//  2. Wait            – poll for the container, RENDER_TIMEOUT when the bound expires
//  3. Read markup     – innerHTML of the container
func (f *PageFetcher) FetchPage(ctx context.Context, s Session, page int) (string, error) {
	if err := f.Navigate(ctx, s, page); err != nil {
		return "", err
	}
	return f.AwaitContainer(ctx, s)
}

// Navigate points s at listing page.
func (f *PageFetcher) Navigate(ctx context.Context, s Session, page int) error {
	target := f.URL(page)
	f.logger.Info("fetching page", "page", page, "url", target)
	if err := f.navigate(ctx, s, target); err != nil {
		return models.NewCrawlError(models.ErrCodeNavigation, "navigation to "+target+" failed", err)
	}
	return nil
}

// AwaitContainer waits for the results container on the current page and
// returns its inner markup.
func (f *PageFetcher) AwaitContainer(ctx context.Context, s Session) (string, error) {
	el, err := f.waitContainer(ctx, s)
	if err != nil {
		return "", categorizeError(err, "results container "+f.container+" did not render")
	}

	markup, err := el.InnerHTML(ctx)
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeExtraction, "failed to read container markup", err)
	}
	return markup, nil
}

func (f *PageFetcher) navigate(ctx context.Context, s Session, target string) error {
	if f.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.navTimeout)
		defer cancel()
	}
	return s.Navigate(ctx, target)
}

// waitContainer polls Session.Query until the container is present.
// A Query error raised because the deadline hit mid-call is reported as the
// deadline itself.
func (f *PageFetcher) waitContainer(ctx context.Context, s Session) (Element, error) {
	var el Element
	err := poll.UntilTimeout(ctx, f.renderTimeout, f.pollInterval, func(ctx context.Context) (bool, error) {
		found, ok, err := s.Query(ctx, f.container)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, err
		}
		if ok {
			el = found
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// categorizeError wraps raw wait errors into typed CrawlErrors.
func categorizeError(err error, msg string) *models.CrawlError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewCrawlError(models.ErrCodeRenderTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewCrawlError(models.ErrCodeRenderTimeout, "wait canceled", err)
	default:
		return models.NewCrawlError(models.ErrCodeNavigation, msg, err)
	}
}
