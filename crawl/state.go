package crawl

import "github.com/use-agent/leninka/models"

// State is a step of the crawl state machine.
//
//	INIT → LAUNCHING → FETCHING(p) → WAITING(p) → EXTRACTING(p)
//	     → FETCHING(p+1) … → AGGREGATED → WRITING → DONE
//
// FAILED is reachable from LAUNCHING through WRITING. DONE and FAILED are terminal.
type State int

const (
	StateInit State = iota
	StateLaunching
	StateFetching
	StateWaiting
	StateExtracting
	StateAggregated
	StateWriting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:       "INIT",
	StateLaunching:  "LAUNCHING",
	StateFetching:   "FETCHING",
	StateWaiting:    "WAITING",
	StateExtracting: "EXTRACTING",
	StateAggregated: "AGGREGATED",
	StateWriting:    "WRITING",
	StateDone:       "DONE",
	StateFailed:     "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// CrawlState is the mutable state of a single run.
type CrawlState struct {
	// State is the current (after Run: terminal) state.
	State State

	// Page is the last page index entered, 1-based; 0 before the first page.
	Page int

	// Articles accumulates records in page order, then document order.
	// It is cleared when the run fails.
	Articles []models.Article

	// PageCounts[i] is the number of records extracted from page i+1.
	PageCounts []int

	// Written is true once the writer has succeeded.
	Written bool

	// Err is the failure reason when State is StateFailed.
	Err error
}

// Succeeded reports whether the run reached DONE.
func (s *CrawlState) Succeeded() bool { return s.State == StateDone }

func (s *CrawlState) appendPage(articles []models.Article) {
	s.Articles = append(s.Articles, articles...)
	s.PageCounts = append(s.PageCounts, len(articles))
}
