// Package crawl drives one browser session through a fixed range of listing
// pages and persists the aggregate only when every page succeeded.
package crawl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/leninka/extract"
	"github.com/use-agent/leninka/models"
	"github.com/use-agent/leninka/scraper"
	"github.com/use-agent/leninka/storage"
)

// Sessions launches and releases the browser session. Release must not fail.
type Sessions interface {
	Launch(ctx context.Context) (scraper.Session, error)
	Release(s scraper.Session)
}

// Pages loads a listing page and waits for its results to render.
type Pages interface {
	Navigate(ctx context.Context, s scraper.Session, page int) error
	AwaitContainer(ctx context.Context, s scraper.Session) (string, error)
}

// Extractor maps rendered markup to records.
type Extractor interface {
	Extract(markup string) ([]models.Article, error)
}

var (
	_ Sessions  = (*scraper.Manager)(nil)
	_ Pages     = (*scraper.PageFetcher)(nil)
	_ Extractor = (*extract.Extractor)(nil)
)

// Orchestrator runs a crawl. It holds configuration only; all per-run state
// lives in the CrawlState returned by Run.
type Orchestrator struct {
	sessions  Sessions
	pages     Pages
	extractor Extractor
	writer    storage.Writer
	numPages  int
	logger    *slog.Logger
	observer  func(State, int)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPages sets the number of pages to crawl. Values below 1 are clamped to 1.
func WithPages(n int) Option {
	if n < 1 {
		n = 1
	}
	return func(o *Orchestrator) { o.numPages = n }
}

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers fn to be called on every state transition with
// the new state and the current page (0 outside the page loop).
func WithObserver(fn func(State, int)) Option { return func(o *Orchestrator) { o.observer = fn } }

// New constructs an Orchestrator. The default page count is 5.
func New(sessions Sessions, pages Pages, extractor Extractor, writer storage.Writer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:  sessions,
		pages:     pages,
		extractor: extractor,
		writer:    writer,
		numPages:  5,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Run executes one crawl. The returned state is always non-nil; err is the
// failure reason when the state is FAILED. The session is released exactly
// once on every path, after all other work for the run has stopped, even
// when an observer panics.
func (o *Orchestrator) Run(ctx context.Context) (*CrawlState, error) {
	st := &CrawlState{State: StateInit}
	o.logger.Info("crawler starting", "pages", o.numPages)

	var sess scraper.Session
	defer func() {
		o.sessions.Release(sess)
		o.logger.Info("done", "state", st.State.String(), "records", len(st.Articles))
	}()

	err := o.run(ctx, st, &sess)
	if err != nil {
		o.fail(st, err)
	}
	return st, err
}

// run walks the state machine up to DONE. Panics are converted to errors
// so that Run still reaches the release step.
func (o *Orchestrator) run(ctx context.Context, st *CrawlState, sess *scraper.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewCrawlError(models.ErrCodeInternal, fmt.Sprintf("panic in state %s", st.State), fmt.Errorf("%v", r))
		}
	}()

	// ── 1. Launch ────────────────────────────────────────────────────
	o.transition(st, StateLaunching, 0)
	s, err := o.sessions.Launch(ctx)
	if err != nil {
		return err
	}
	*sess = s

	// ── 2. Pages 1..N, strictly sequential ───────────────────────────
	for p := 1; p <= o.numPages; p++ {
		o.transition(st, StateFetching, p)
		if err := o.pages.Navigate(ctx, s, p); err != nil {
			return err
		}

		o.transition(st, StateWaiting, p)
		markup, err := o.pages.AwaitContainer(ctx, s)
		if err != nil {
			return err
		}

		o.transition(st, StateExtracting, p)
		articles, err := o.extractor.Extract(markup)
		if err != nil {
			return err
		}
		st.appendPage(articles)
		o.logger.Info("page extracted", "page", p, "count", len(articles), "total", len(st.Articles))
	}

	// ── 3. Aggregate and persist ────────────────────────────────────
	o.transition(st, StateAggregated, 0)
	o.logger.Info("parsed articles", "count", len(st.Articles))

	o.transition(st, StateWriting, 0)
	if err := o.writer.Write(ctx, st.Articles); err != nil {
		return err
	}
	st.Written = true
	o.logger.Info("wrote output", "records", len(st.Articles))

	o.transition(st, StateDone, 0)
	return nil
}

func (o *Orchestrator) transition(st *CrawlState, to State, page int) {
	st.State = to
	if page > 0 {
		st.Page = page
	}
	if o.observer != nil {
		o.observer(to, page)
	}
}

// fail moves st to FAILED and discards the accumulated records.
func (o *Orchestrator) fail(st *CrawlState, err error) {
	failedIn := st.State
	st.Err = err
	st.Articles = nil
	o.transition(st, StateFailed, 0)
	o.logger.Error("crawl failed",
		"code", models.CodeOf(err),
		"state", failedIn.String(),
		"page", st.Page,
		"error", err,
	)
}
