// Package dedup decides whether an extracted notice has been seen before.
// Identity is the notice fingerprint; the durable store's primary key makes
// each fingerprint surface at most once across all polling cycles.
package dedup

import (
	"context"
	"fmt"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// Store persists fingerprint records with insert-if-absent semantics. The
// implementation must enforce uniqueness at the storage layer, not with
// read-then-write logic, so concurrent source runs remain correct.
type Store interface {
	InsertIfAbsent(ctx context.Context, rec domain.FingerprintRecord) (bool, error)
}

// Deduplicator surfaces each notice fingerprint at most once.
type Deduplicator struct {
	store Store
}

// New creates a Deduplicator backed by the given store.
func New(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// IsNew reports whether the notice's fingerprint has not been seen before,
// persisting the fingerprint record as a side effect of the first sighting.
// A notice whose identity fields are unchanged is never re-surfaced even if
// incidental fields differ between sightings.
func (d *Deduplicator) IsNew(ctx context.Context, notice *domain.Notice) (bool, error) {
	inserted, err := d.store.InsertIfAbsent(ctx, domain.RecordFor(notice))
	if err != nil {
		return false, fmt.Errorf("dedup check for %q: %w", notice.Title, err)
	}
	return inserted, nil
}
