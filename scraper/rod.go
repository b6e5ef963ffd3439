package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/leninka/config"
	"github.com/use-agent/leninka/models"
)

// RodLauncher launches a local Chromium through Rod.
type RodLauncher struct {
	cfg    config.BrowserConfig
	logger *slog.Logger
}

var _ Launcher = (*RodLauncher)(nil)

// NewRodLauncher creates a launcher for the given browser configuration.
func NewRodLauncher(cfg config.BrowserConfig, logger *slog.Logger) *RodLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodLauncher{cfg: cfg, logger: logger}
}

// newLauncher builds the Chromium command line: fixed window size plus the
// flags needed to run inside containers.
func (r *RodLauncher) newLauncher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}

	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", r.cfg.WindowWidth, r.cfg.WindowHeight))
	return l
}

// Launch starts Chromium, connects to it and opens the working tab.
// On any failure the partially started browser is torn down.
func (r *RodLauncher) Launch(ctx context.Context) (Session, error) {
	l := r.newLauncher(ctx)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeSessionLaunch, "failed to launch browser", err)
	}
	r.logger.Info("browser launched", "controlURL", controlURL)

	s := &rodSession{launcher: l, logger: r.logger}

	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		_ = s.Close()
		return nil, models.NewCrawlError(models.ErrCodeSessionLaunch, "failed to connect to browser", err)
	}
	s.browser = browser

	page, err := r.openPage(browser)
	if err != nil {
		_ = s.Close()
		return nil, models.NewCrawlError(models.ErrCodeSessionLaunch, "failed to open page", err)
	}
	s.page = page
	s.router = setupHijack(page, r.cfg.BlockedResources)

	return s, nil
}

// openPage creates the tab and applies viewport, user agent and headers.
func (r *RodLauncher) openPage(browser *rod.Browser) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if r.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  r.cfg.WindowWidth,
		Height: r.cfg.WindowHeight,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if r.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}); err != nil {
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	if len(r.cfg.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(r.cfg.Headers)}).Call(page); err != nil {
			return nil, fmt.Errorf("set extra headers: %w", err)
		}
	}
	return page, nil
}

// rodSession is a Session backed by one Chromium process and one tab.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

func (s *rodSession) Query(ctx context.Context, selector string) (Element, bool, error) {
	found, el, err := s.page.Context(ctx).Has(selector)
	if err != nil || !found {
		return nil, false, err
	}
	return &rodElement{el: el}, true, nil
}

// Close stops request interception, closes the browser over CDP and kills
// the process. Only the first call does any work.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				s.logger.Debug("hijack router stop failed", "error", err)
			}
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
	})
	return s.closeErr
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) InnerHTML(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("innerHTML")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
