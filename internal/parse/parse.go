// Package parse turns raw portal HTML into normalized Notice records. Each
// portal family has one Parser implementation, looked up by the parser id on
// the source descriptor; new portals are added by registering a parser, never
// by branching on source names inside shared logic.
//
// All parsers follow the same row policy: structural rows below the expected
// minimum field count (headers, footers, pagination controls) are skipped
// silently; a notice is emitted only when both title and URL resolved; and
// relative URLs are always resolved against the source base URL so dedup
// fingerprints see one canonical form.
package parse

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// ErrUnknownParser is returned when no parser is registered under an id.
var ErrUnknownParser = errors.New("unknown parser id")

// Parser extracts notices from one page of rendered HTML. Implementations
// are pure transformations; the single sanctioned exception is the BNC
// parser's per-row detail-page fetch, which degrades to the table-level
// summary on failure instead of failing the parse.
type Parser interface {
	Parse(html, baseURL string) ([]domain.Notice, error)
}

// Registry maps parser ids to implementations.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser under an id. Registering the same id twice is a
// programming error and panics.
func (r *Registry) Register(id string, p Parser) {
	if _, exists := r.parsers[id]; exists {
		panic(fmt.Sprintf("parser %q registered twice", id))
	}
	r.parsers[id] = p
}

// Get returns the parser registered under id.
func (r *Registry) Get(id string) (Parser, error) {
	p, ok := r.parsers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParser, id)
	}
	return p, nil
}

// IDs returns the registered parser ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	return ids
}

// resolveURL resolves href against base into absolute form. Returns "" when
// the reference cannot be resolved; callers drop such rows.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// clean collapses whitespace in extracted cell text.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
