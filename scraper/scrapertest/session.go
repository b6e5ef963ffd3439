// Package scrapertest provides an in-memory scraper.Session for tests.
package scrapertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/use-agent/leninka/scraper"
)

// ErrClosed is returned by every Session method called after Close.
var ErrClosed = errors.New("scrapertest: session used after close")

// Page describes how the fake browser responds to one URL.
type Page struct {
	// Markup is the container's inner HTML.
	Markup string

	// Pending is the number of Query calls that report "not found"
	// before the container appears.
	Pending int

	// NeverRenders keeps the container absent forever.
	NeverRenders bool

	// NavigateErr is returned by Navigate for this URL.
	NavigateErr error

	// QueryErr is returned by Query while this URL is loaded.
	QueryErr error

	// InnerErr is returned by Element.InnerHTML while this URL is loaded.
	InnerErr error
}

// Session is a scrapertest fake. The zero value serves nothing; populate
// Pages keyed by URL. Safe for concurrent use.
type Session struct {
	Pages map[string]*Page

	// Container, when set, must match the selector passed to Query.
	Container string

	// CloseErr is returned by Close.
	CloseErr error

	mu      sync.Mutex
	current string
	queries map[string]int
	events  []string
	closes  int
	misuse  []string
}

var _ scraper.Session = (*Session)(nil)

// Navigate records the visit and makes url the current page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("navigate"); err != nil {
		return err
	}
	s.events = append(s.events, "navigate "+url)
	p, ok := s.Pages[url]
	if !ok {
		return fmt.Errorf("scrapertest: no page for %s", url)
	}
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.current = url
	return nil
}

// Query reports the container once the current page's Pending count is used up.
func (s *Session) Query(ctx context.Context, selector string) (scraper.Element, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("query"); err != nil {
		return nil, false, err
	}
	s.events = append(s.events, "query "+selector)
	if s.Container != "" && selector != s.Container {
		return nil, false, nil
	}
	p, ok := s.Pages[s.current]
	if !ok {
		return nil, false, nil
	}
	if p.QueryErr != nil {
		return nil, false, p.QueryErr
	}
	if s.queries == nil {
		s.queries = make(map[string]int)
	}
	s.queries[s.current]++
	if p.NeverRenders || s.queries[s.current] <= p.Pending {
		return nil, false, nil
	}
	return &element{s: s, page: p}, true, nil
}

// Close counts calls and marks the session unusable.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.events = append(s.events, "close")
	return s.CloseErr
}

// Closes returns how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Events returns the ordered log of calls made on the session.
func (s *Session) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// Visited returns the navigated URLs in order.
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		if url, ok := strings.CutPrefix(e, "navigate "); ok {
			out = append(out, url)
		}
	}
	return out
}

// Misuse lists calls that happened after Close.
func (s *Session) Misuse() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.misuse...)
}

func (s *Session) checkOpen(op string) error {
	if s.closes > 0 {
		s.misuse = append(s.misuse, op)
		return ErrClosed
	}
	return nil
}

type element struct {
	s    *Session
	page *Page
}

func (e *element) InnerHTML(context.Context) (string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.s.checkOpen("inner"); err != nil {
		return "", err
	}
	e.s.events = append(e.s.events, "inner")
	if e.page.InnerErr != nil {
		return "", e.page.InnerErr
	}
	return e.page.Markup, nil
}

// Launcher hands out one prepared Session, or fails with Err.
type Launcher struct {
	Session *Session
	Err     error

	mu       sync.Mutex
	launches int
}

var _ scraper.Launcher = (*Launcher)(nil)

// Launch returns l.Session or l.Err.
func (l *Launcher) Launch(ctx context.Context) (scraper.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Session, nil
}

// Launches returns how many times Launch was called.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}
