package fetch

import "fmt"

// Kind classifies fetch failures. Missing expected content is deliberately
// not a Kind: it degrades to a warning on the Result instead.
type Kind string

const (
	// KindTransport covers network failures and non-2xx responses.
	KindTransport Kind = "transport"
	// KindTimeout covers deadline expiry on navigation or rendering.
	KindTimeout Kind = "timeout"
)

// Error is a failed fetch for one source.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
