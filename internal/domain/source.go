package domain

import "time"

// Strategy selects how raw page content is obtained for a source.
type Strategy string

const (
	// StrategyStatic performs a single HTTP GET.
	StrategyStatic Strategy = "static"
	// StrategyScroll renders the page and scrolls until the content height
	// stabilizes (infinite-scroll portals).
	StrategyScroll Strategy = "scroll"
	// StrategyPaginated renders the page and advances through an in-place
	// "next page" control (postback-style pagination).
	StrategyPaginated Strategy = "paginated"
)

// FetchParams holds the strategy-specific knobs for one source.
type FetchParams struct {
	// WaitSelector is the element whose presence signals that the initial
	// content has rendered. Its absence within the timeout is a warning,
	// not a failure.
	WaitSelector string
	// WaitTimeout bounds the initial wait. Zero means the process-wide
	// default.
	WaitTimeout time.Duration
	// StepDelay is the pause between scroll steps or page advances, giving
	// in-page requests time to land.
	StepDelay time.Duration
	// MaxSteps caps scroll/pagination iterations so a misbehaving page can
	// never hold a cycle forever.
	MaxSteps int
	// NextSelector is the "next page" control for paginated sources.
	NextSelector string
	// MarkerSelector locates the trailing date/year marker checked against
	// StopThreshold after each page load.
	MarkerSelector string
}

// Source is the immutable configuration for one monitored portal. Sources
// are loaded once at startup and never mutated at runtime.
type Source struct {
	Name     string
	EntryURL string
	Strategy Strategy
	Fetch    FetchParams
	ParserID string
	// BaseURL is the base against which relative links are resolved.
	BaseURL string
	// StopThreshold is a year; notices whose published text carries an
	// older year are discarded, and paginated fetches stop once a page's
	// trailing marker falls below it. Zero disables the cutoff.
	StopThreshold int
	// Ordered declares that the portal renders newest-first. Only then may
	// the scheduler stop dedup checks at the first already-known item.
	Ordered bool
}
