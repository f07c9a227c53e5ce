package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/licitawatch/internal/domain"
)

// noticesSchema creates the fingerprint table. The primary key carries the
// dedup guarantee: duplicate insert attempts no-op at the storage layer, so
// check-and-insert stays correct even if sources are ever fetched in
// parallel.
const noticesSchema = `
CREATE TABLE IF NOT EXISTS notices (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	organization TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	published    TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	first_seen   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// NoticeRepository persists fingerprint records. Records are insert-only;
// retention and expiry are external concerns.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates a new notice fingerprint repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// EnsureSchema creates the notices table when absent.
func (r *NoticeRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, noticesSchema); err != nil {
		return fmt.Errorf("failed to ensure notices schema: %w", err)
	}
	return nil
}

// InsertIfAbsent atomically inserts the fingerprint record unless its id is
// already present. Returns true when the record was inserted, i.e. this is
// the first sighting of the fingerprint.
func (r *NoticeRepository) InsertIfAbsent(ctx context.Context, rec domain.FingerprintRecord) (bool, error) {
	query := `
		INSERT INTO notices (id, title, organization, url, published, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		rec.ID, rec.Title, rec.Organization, rec.URL, rec.Published, rec.ContentHash,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert fingerprint record: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}

	return inserted > 0, nil
}
