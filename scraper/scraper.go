package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/leninka/models"
)

// Manager owns the lifecycle of browser sessions: it launches them and
// guarantees that release never fails the caller.
type Manager struct {
	launcher Launcher
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger means slog.Default().
func NewManager(l Launcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{launcher: l, logger: logger}
}

// Launch starts a session. Every failure is reported as a
// SESSION_LAUNCH_FAILED CrawlError.
func (m *Manager) Launch(ctx context.Context) (Session, error) {
	m.logger.Info("building browser session")
	s, err := m.launcher.Launch(ctx)
	if err != nil {
		var ce *models.CrawlError
		if errors.As(err, &ce) && ce.Code == models.ErrCodeSessionLaunch {
			return nil, err
		}
		return nil, models.NewCrawlError(models.ErrCodeSessionLaunch, "failed to launch browser", err)
	}
	if s == nil {
		return nil, models.NewCrawlError(models.ErrCodeSessionLaunch, "launcher returned no session", nil)
	}
	return s, nil
}

// Release terminates s. It runs during cleanup of a possibly failed run, so
// termination errors and panics are logged, never propagated.
func (m *Manager) Release(s Session) {
	if s == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("browser close panicked", "panic", r)
		}
	}()
	if err := s.Close(); err != nil {
		m.logger.Warn("failed to close browser", "error", err)
		return
	}
	m.logger.Info("browser closed")
}
