// Package browser exposes the headless-browser capability the fetch
// strategies need: open a page, wait, scroll, click, read the rendered DOM.
// The engine itself is a black box behind the Page interface; the shipped
// implementation drives Chrome via chromedp.
package browser

import (
	"context"
	"errors"
)

// ErrSessionClosed is returned by Page methods after Close.
var ErrSessionClosed = errors.New("browser session closed")

// Page is one exclusively-owned browser session. A Page belongs to the fetch
// that opened it and must be closed on every exit path.
type Page interface {
	// Navigate loads the given URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible element or
	// the context deadline passes.
	WaitVisible(ctx context.Context, selector string) error
	// ScrollToBottom scrolls the window to the current content bottom.
	ScrollToBottom(ctx context.Context) error
	// ContentHeight reports the current document scroll height.
	ContentHeight(ctx context.Context) (int64, error)
	// Click dispatches a click on the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// Text returns the inner text of the first element matching the
	// selector, or an error if none matches.
	Text(ctx context.Context, selector string) (string, error)
	// Content returns the full rendered HTML of the page.
	Content(ctx context.Context) (string, error)
	// Close releases the session. Safe to call more than once.
	Close() error
}

// Launcher opens fresh pages. Each call owns an isolated session.
type Launcher interface {
	NewPage(ctx context.Context) (Page, error)
}
