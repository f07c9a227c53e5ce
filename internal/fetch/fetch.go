// Package fetch obtains raw page content for a source. Three strategies are
// supported: a plain HTTP GET, a scrolling headless-browser fetch for
// infinite-scroll portals, and a click-through fetch for portals whose
// pagination swaps content in place instead of navigating.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/jonesrussell/licitawatch/internal/browser"
	"github.com/jonesrussell/licitawatch/internal/domain"
	"github.com/jonesrussell/licitawatch/internal/logger"
)

// maxResponseBodyBytes limits the size of statically fetched responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

const userAgent = "Mozilla/5.0 (compatible; LicitaWatch/1.0)"

// Defaults are process-wide fallbacks for per-source fetch parameters.
type Defaults struct {
	MaxSteps    int
	StepDelay   time.Duration
	WaitTimeout time.Duration
}

// Result is the raw content obtained for one source. Scroll and static
// fetches produce a single page; paginated fetches produce one entry per
// visited page. Warnings carry degraded-but-usable conditions (wait selector
// never appeared, step cap reached) that the caller should log.
type Result struct {
	Pages    []string
	Warnings []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Fetcher executes the fetch strategy configured on a source. The browser
// session used by a fetch is owned by that fetch alone and released on every
// exit path.
type Fetcher struct {
	client   *http.Client
	launcher browser.Launcher
	log      logger.Interface
	defaults Defaults
}

// New creates a Fetcher. The launcher may be nil when only static sources
// are configured.
func New(client *http.Client, launcher browser.Launcher, log logger.Interface, defaults Defaults) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client:   client,
		launcher: launcher,
		log:      log.WithComponent("fetch"),
		defaults: defaults,
	}
}

// Fetch obtains raw content for the source using its configured strategy.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (*Result, error) {
	switch src.Strategy {
	case domain.StrategyStatic:
		return f.fetchStatic(ctx, src)
	case domain.StrategyScroll:
		return f.fetchScroll(ctx, src)
	case domain.StrategyPaginated:
		return f.fetchPaginated(ctx, src)
	default:
		return nil, fmt.Errorf("source %s: unknown strategy %q", src.Name, src.Strategy)
	}
}

// fetchStatic performs a single HTTP GET. There is no retry here; retrying
// is the scheduler's concern across cycles, not the fetch's within one.
func (f *Fetcher) fetchStatic(ctx context.Context, src domain.Source) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.EntryURL, http.NoBody)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: src.EntryURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		kind := KindTransport
		if ctx.Err() == context.DeadlineExceeded {
			kind = KindTimeout
		}
		return nil, &Error{Kind: kind, URL: src.EntryURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Kind: KindTransport,
			URL:  src.EntryURL,
			Err:  fmt.Errorf("http status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: src.EntryURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	return &Result{Pages: []string{string(body)}}, nil
}

// maxSteps returns the effective step cap for a source.
func (f *Fetcher) maxSteps(src domain.Source) int {
	if src.Fetch.MaxSteps > 0 {
		return src.Fetch.MaxSteps
	}
	return f.defaults.MaxSteps
}

// stepDelay returns the effective inter-step delay for a source.
func (f *Fetcher) stepDelay(src domain.Source) time.Duration {
	if src.Fetch.StepDelay > 0 {
		return src.Fetch.StepDelay
	}
	return f.defaults.StepDelay
}

// waitTimeout returns the effective initial-wait timeout for a source.
func (f *Fetcher) waitTimeout(src domain.Source) time.Duration {
	if src.Fetch.WaitTimeout > 0 {
		return src.Fetch.WaitTimeout
	}
	return f.defaults.WaitTimeout
}

// openPage opens a browser page and navigates it to the source entry URL,
// then waits for the initial content selector. A missed wait is a warning
// on the result, not a failure: the fetch proceeds with whatever rendered.
func (f *Fetcher) openPage(ctx context.Context, src domain.Source, res *Result) (browser.Page, error) {
	if f.launcher == nil {
		return nil, fmt.Errorf("source %s: strategy %s requires a browser", src.Name, src.Strategy)
	}

	page, err := f.launcher.NewPage(ctx)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: src.EntryURL, Err: fmt.Errorf("open browser page: %w", err)}
	}

	if navErr := page.Navigate(ctx, src.EntryURL); navErr != nil {
		_ = page.Close()
		kind := KindTransport
		if ctx.Err() == context.DeadlineExceeded {
			kind = KindTimeout
		}
		return nil, &Error{Kind: kind, URL: src.EntryURL, Err: navErr}
	}

	if src.Fetch.WaitSelector != "" {
		waitCtx, cancel := context.WithTimeout(ctx, f.waitTimeout(src))
		waitErr := page.WaitVisible(waitCtx, src.Fetch.WaitSelector)
		cancel()
		if waitErr != nil {
			res.warnf("wait selector %q not found: %v", src.Fetch.WaitSelector, waitErr)
		}
	}

	return page, nil
}

// fetchScroll renders the page and repeatedly scrolls to the bottom until
// the content height stops growing. The step cap guarantees termination on
// pages that never stabilize; reaching it yields partial content plus a
// warning, never an error.
func (f *Fetcher) fetchScroll(ctx context.Context, src domain.Source) (*Result, error) {
	res := &Result{}

	page, err := f.openPage(ctx, src, res)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	maxSteps := f.maxSteps(src)
	lastHeight := int64(-1)
	stabilized := false

	for step := 0; step < maxSteps; step++ {
		if scrollErr := page.ScrollToBottom(ctx); scrollErr != nil {
			res.warnf("scroll step %d failed: %v", step+1, scrollErr)
			break
		}

		if sleepErr := sleepOrCancel(ctx, f.stepDelay(src)); sleepErr != nil {
			return nil, &Error{Kind: KindTimeout, URL: src.EntryURL, Err: sleepErr}
		}

		height, heightErr := page.ContentHeight(ctx)
		if heightErr != nil {
			res.warnf("height check failed after step %d: %v", step+1, heightErr)
			break
		}

		if height == lastHeight {
			stabilized = true
			f.log.Debug("scroll stabilized",
				"source", src.Name,
				"steps", step+1,
				"height", height,
			)
			break
		}
		lastHeight = height
	}

	if !stabilized {
		res.warnf("scroll step cap %d reached before height stabilized; results may be partial", maxSteps)
	}

	html, contentErr := page.Content(ctx)
	if contentErr != nil {
		return nil, &Error{Kind: KindTransport, URL: src.EntryURL, Err: contentErr}
	}
	res.Pages = []string{html}

	return res, nil
}

// fetchPaginated walks an in-place paginated listing via its "next" control.
// Pagination stops when the next control is gone, the click-and-wait
// interaction fails, the step cap is reached, or the page's trailing marker
// falls below the source's stop threshold. The threshold-straddling page is
// still returned; record-level filtering happens downstream.
func (f *Fetcher) fetchPaginated(ctx context.Context, src domain.Source) (*Result, error) {
	res := &Result{}

	page, err := f.openPage(ctx, src, res)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	maxSteps := f.maxSteps(src)

	for step := 0; ; step++ {
		html, contentErr := page.Content(ctx)
		if contentErr != nil {
			if len(res.Pages) == 0 {
				return nil, &Error{Kind: KindTransport, URL: src.EntryURL, Err: contentErr}
			}
			res.warnf("page %d unreadable, keeping earlier pages: %v", step+1, contentErr)
			break
		}
		res.Pages = append(res.Pages, html)

		if f.pastThreshold(ctx, page, src) {
			f.log.Debug("stop threshold reached",
				"source", src.Name,
				"pages", len(res.Pages),
				"threshold", src.StopThreshold,
			)
			break
		}

		if step+1 >= maxSteps {
			res.warnf("pagination step cap %d reached; results may be partial", maxSteps)
			break
		}

		// A missing or broken next control ends pagination gracefully.
		if clickErr := page.Click(ctx, src.Fetch.NextSelector); clickErr != nil {
			break
		}

		if sleepErr := sleepOrCancel(ctx, f.stepDelay(src)); sleepErr != nil {
			return nil, &Error{Kind: KindTimeout, URL: src.EntryURL, Err: sleepErr}
		}

		if src.Fetch.WaitSelector != "" {
			waitCtx, cancel := context.WithTimeout(ctx, f.waitTimeout(src))
			waitErr := page.WaitVisible(waitCtx, src.Fetch.WaitSelector)
			cancel()
			if waitErr != nil {
				res.warnf("content selector missing after page %d: %v", step+2, waitErr)
				break
			}
		}
	}

	return res, nil
}

// pastThreshold reports whether the current page's trailing marker carries a
// year older than the source's stop threshold.
func (f *Fetcher) pastThreshold(ctx context.Context, page browser.Page, src domain.Source) bool {
	if src.StopThreshold <= 0 || src.Fetch.MarkerSelector == "" {
		return false
	}

	text, err := page.Text(ctx, src.Fetch.MarkerSelector)
	if err != nil {
		return false
	}

	year, ok := TrailingYear(text)
	return ok && year < src.StopThreshold
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// TrailingYear extracts the last 4-digit year from free text such as
// "01/12/2023" or "Publicado em 2022". Returns false when no year appears.
func TrailingYear(text string) (int, bool) {
	matches := yearPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// sleepOrCancel sleeps for d or returns the context error on cancellation.
func sleepOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
