package scraper

import (
	"context"
)

// Session is a live remote browser connection with a single working tab.
// Implementations need not be safe for concurrent use; the crawl drives
// one page at a time.
type Session interface {
	// Navigate loads url in the session's tab.
	Navigate(ctx context.Context, url string) error

	// Query looks up the first element matching selector in the current
	// document without waiting. found is false when nothing matches yet.
	Query(ctx context.Context, selector string) (el Element, found bool, err error)

	// Close terminates the session. Calling it more than once is safe.
	Close() error
}

// Element is a node in the rendered DOM of a Session.
type Element interface {
	// InnerHTML returns the serialized markup of the element's children.
	InnerHTML(ctx context.Context) (string, error)
}

// Launcher starts new browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (Session, error)

// Launch calls f(ctx).
func (f LauncherFunc) Launch(ctx context.Context) (Session, error) { return f(ctx) }
