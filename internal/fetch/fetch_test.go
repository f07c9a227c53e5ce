package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonesrussell/licitawatch/internal/browser"
	"github.com/jonesrussell/licitawatch/internal/domain"
	"github.com/jonesrussell/licitawatch/internal/fetch"
	"github.com/jonesrussell/licitawatch/internal/logger"
)

// fakePage scripts a browser session: heights are consumed one per scroll
// step, contents one per Content call (the last one repeats).
type fakePage struct {
	heights    []int64
	contents   []string
	texts      map[string]string
	waitErr    error
	clickErrAt int // click number that fails; 0 means never

	scrolls int
	clicks  int
	reads   int
	closed  bool
}

func (p *fakePage) Navigate(context.Context, string) error { return nil }

func (p *fakePage) WaitVisible(context.Context, string) error { return p.waitErr }

func (p *fakePage) ScrollToBottom(context.Context) error {
	p.scrolls++
	return nil
}

func (p *fakePage) ContentHeight(context.Context) (int64, error) {
	if len(p.heights) == 0 {
		return 0, errors.New("no scripted height")
	}
	h := p.heights[0]
	if len(p.heights) > 1 {
		p.heights = p.heights[1:]
	}
	return h, nil
}

func (p *fakePage) Click(context.Context, string) error {
	p.clicks++
	if p.clickErrAt > 0 && p.clicks >= p.clickErrAt {
		return errors.New("element not found")
	}
	return nil
}

func (p *fakePage) Text(_ context.Context, selector string) (string, error) {
	text, ok := p.texts[selector]
	if !ok {
		return "", errors.New("no such element")
	}
	return text, nil
}

func (p *fakePage) Content(context.Context) (string, error) {
	if len(p.contents) == 0 {
		return "", errors.New("no scripted content")
	}
	c := p.contents[0]
	if len(p.contents) > 1 {
		p.contents = p.contents[1:]
	}
	p.reads++
	return c, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeLauncher struct {
	page *fakePage
	err  error
}

func (l *fakeLauncher) NewPage(context.Context) (browser.Page, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.page, nil
}

func newFetcher(launcher browser.Launcher) *fetch.Fetcher {
	return fetch.New(nil, launcher, logger.NewNoOp(), fetch.Defaults{
		MaxSteps: 5,
	})
}

func scrollSource() domain.Source {
	return domain.Source{
		Name:     "test",
		EntryURL: "https://example.com/list",
		Strategy: domain.StrategyScroll,
	}
}

func TestFetch_Static(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "LicitaWatch") {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte("<html><body>listing</body></html>"))
	}))
	defer server.Close()

	f := fetch.New(server.Client(), nil, logger.NewNoOp(), fetch.Defaults{})

	res, err := f.Fetch(context.Background(), domain.Source{
		Name:     "static",
		EntryURL: server.URL,
		Strategy: domain.StrategyStatic,
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Pages) != 1 || !strings.Contains(res.Pages[0], "listing") {
		t.Errorf("unexpected pages: %v", res.Pages)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestFetch_StaticHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := fetch.New(server.Client(), nil, logger.NewNoOp(), fetch.Defaults{})

	_, err := f.Fetch(context.Background(), domain.Source{
		Name:     "static",
		EntryURL: server.URL,
		Strategy: domain.StrategyStatic,
	})

	var fetchErr *fetch.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *fetch.Error", err)
	}
	if fetchErr.Kind != fetch.KindTransport {
		t.Errorf("Kind = %v, want transport", fetchErr.Kind)
	}
}

func TestFetch_ScrollStabilizes(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		heights:  []int64{100, 200, 200},
		contents: []string{"<html>full listing</html>"},
	}
	f := newFetcher(&fakeLauncher{page: page})

	res, err := f.Fetch(context.Background(), scrollSource())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if page.scrolls != 3 {
		t.Errorf("scrolls = %d, want 3", page.scrolls)
	}
	if len(res.Pages) != 1 || res.Pages[0] != "<html>full listing</html>" {
		t.Errorf("unexpected pages: %v", res.Pages)
	}
	if !page.closed {
		t.Error("page was not closed")
	}
}

func TestFetch_ScrollCapYieldsPartialWithWarning(t *testing.T) {
	t.Parallel()

	// Height grows on every step, so only the cap stops the loop.
	page := &fakePage{
		heights:  []int64{100, 200, 300, 400, 500, 600},
		contents: []string{"<html>partial</html>"},
	}
	f := newFetcher(&fakeLauncher{page: page})

	res, err := f.Fetch(context.Background(), scrollSource())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if page.scrolls != 5 {
		t.Errorf("scrolls = %d, want the cap of 5", page.scrolls)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want partial content", len(res.Pages))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "step cap") {
		t.Errorf("warnings = %v, want a step-cap warning", res.Warnings)
	}
	if !page.closed {
		t.Error("page was not closed")
	}
}

func TestFetch_ScrollMissedWaitSelectorWarns(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		heights:  []int64{100, 100},
		contents: []string{"<html>rendered anyway</html>"},
		waitErr:  errors.New("timed out"),
	}
	f := newFetcher(&fakeLauncher{page: page})

	src := scrollSource()
	src.Fetch.WaitSelector = "tbody#rows"

	res, err := f.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "wait selector") {
		t.Errorf("warnings = %v, want a wait-selector warning", res.Warnings)
	}
	if len(res.Pages) != 1 {
		t.Error("missed wait selector should not abort the fetch")
	}
}

func TestFetch_PaginatedStopsAtThreshold(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		contents: []string{"<html>page 1</html>", "<html>page 2</html>", "<html>page 3</html>"},
		texts:    map[string]string{"td.date": "01/12/2023"},
	}
	f := newFetcher(&fakeLauncher{page: page})

	src := domain.Source{
		Name:          "paged",
		EntryURL:      "https://example.com/list",
		Strategy:      domain.StrategyPaginated,
		StopThreshold: 2024,
	}
	src.Fetch.NextSelector = "a.next"
	src.Fetch.MarkerSelector = "td.date"

	res, err := f.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(res.Pages) != 1 {
		t.Errorf("got %d pages, want 1 (threshold reached on the first page)", len(res.Pages))
	}
	if page.clicks != 0 {
		t.Errorf("clicks = %d, want 0", page.clicks)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestFetch_PaginatedStopsWhenClickFails(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		contents:   []string{"<html>page 1</html>", "<html>page 2</html>"},
		clickErrAt: 2, // second click fails: the "next" control is gone
	}
	f := newFetcher(&fakeLauncher{page: page})

	src := domain.Source{
		Name:     "paged",
		EntryURL: "https://example.com/list",
		Strategy: domain.StrategyPaginated,
	}
	src.Fetch.NextSelector = "a.next"

	res, err := f.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(res.Pages) != 2 {
		t.Errorf("got %d pages, want 2", len(res.Pages))
	}
	if res.Pages[0] != "<html>page 1</html>" || res.Pages[1] != "<html>page 2</html>" {
		t.Errorf("unexpected pages: %v", res.Pages)
	}
	if !page.closed {
		t.Error("page was not closed")
	}
}

func TestFetch_PaginatedCapWarns(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		contents: []string{"<html>page</html>"},
	}
	f := newFetcher(&fakeLauncher{page: page})

	src := domain.Source{
		Name:     "paged",
		EntryURL: "https://example.com/list",
		Strategy: domain.StrategyPaginated,
	}
	src.Fetch.NextSelector = "a.next"

	res, err := f.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(res.Pages) != 5 {
		t.Errorf("got %d pages, want the cap of 5", len(res.Pages))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "step cap") {
		t.Errorf("warnings = %v, want a step-cap warning", res.Warnings)
	}
}

func TestFetch_BrowserStrategyWithoutLauncher(t *testing.T) {
	t.Parallel()

	f := fetch.New(nil, nil, logger.NewNoOp(), fetch.Defaults{MaxSteps: 5})

	_, err := f.Fetch(context.Background(), scrollSource())
	if err == nil {
		t.Fatal("expected error when no launcher is configured")
	}
}

func TestTrailingYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		wantYear int
		wantOK   bool
	}{
		{"01/12/2023", 2023, true},
		{"Publicado em 2022", 2022, true},
		{"15/01/2024 às 10:00", 2024, true},
		{"Edital 123/2021 de 05/03/2025", 2025, true},
		{"sem data", 0, false},
		{"", 0, false},
		{"ano 23", 0, false},
	}

	for _, tt := range tests {
		year, ok := fetch.TrailingYear(tt.text)
		if year != tt.wantYear || ok != tt.wantOK {
			t.Errorf("TrailingYear(%q) = (%d, %v), want (%d, %v)",
				tt.text, year, ok, tt.wantYear, tt.wantOK)
		}
	}
}
