package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
)

// ChromeLauncher launches headless Chrome pages via chromedp. One exec
// allocator is shared; every NewPage gets its own browser context, so pages
// never share state across sources or cycles.
type ChromeLauncher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewChromeLauncher creates the shared Chrome allocator. Call Shutdown when
// the process stops.
func NewChromeLauncher(ctx context.Context) *ChromeLauncher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &ChromeLauncher{allocCtx: allocCtx, cancelAlloc: cancel}
}

// NewPage opens a fresh browser context.
func (l *ChromeLauncher) NewPage(_ context.Context) (Page, error) {
	taskCtx, cancel := chromedp.NewContext(l.allocCtx)
	return &chromePage{ctx: taskCtx, cancel: cancel}, nil
}

// Shutdown releases the allocator and every remaining page.
func (l *ChromeLauncher) Shutdown() {
	l.cancelAlloc()
}

// chromePage is a single chromedp browser context.
type chromePage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    bool
}

func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	if p.closed {
		return ErrSessionClosed
	}
	runCtx := p.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(p.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) ScrollToBottom(ctx context.Context) error {
	err := p.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
	if err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	return nil
}

func (p *chromePage) ContentHeight(ctx context.Context) (int64, error) {
	var height int64
	err := p.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height))
	if err != nil {
		return 0, fmt.Errorf("read content height: %w", err)
	}
	return height, nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read text of %q: %w", selector, err)
	}
	return text, nil
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		p.cancel()
	})
	return nil
}
