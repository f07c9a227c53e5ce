package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/licitawatch/internal/database"
	"github.com/jonesrussell/licitawatch/internal/domain"
)

func newNoticeRepo(t *testing.T) (*database.NoticeRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewNoticeRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func testRecord() domain.FingerprintRecord {
	n := domain.Notice{
		Title:        "Pregão 101/2025",
		Organization: "Sanesul",
		URL:          "https://example.com/licitacao/101",
		Published:    "10/08/2025",
	}
	return domain.RecordFor(&n)
}

func TestNoticeRepository_EnsureSchema(t *testing.T) {
	repo, mock, cleanup := newNoticeRepo(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS notices").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_InsertIfAbsent_FirstSighting(t *testing.T) {
	repo, mock, cleanup := newNoticeRepo(t)
	defer cleanup()

	rec := testRecord()

	mock.ExpectExec("INSERT INTO notices").
		WithArgs(rec.ID, rec.Title, rec.Organization, rec.URL, rec.Published, rec.ContentHash).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertIfAbsent(context.Background(), rec)
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if !inserted {
		t.Error("first sighting reported as already seen")
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_InsertIfAbsent_Conflict(t *testing.T) {
	repo, mock, cleanup := newNoticeRepo(t)
	defer cleanup()

	rec := testRecord()

	// ON CONFLICT DO NOTHING reports zero affected rows for a duplicate.
	mock.ExpectExec("INSERT INTO notices").
		WithArgs(rec.ID, rec.Title, rec.Organization, rec.URL, rec.Published, rec.ContentHash).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertIfAbsent(context.Background(), rec)
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if inserted {
		t.Error("duplicate sighting reported as new")
	}

	expectationsMet(t, mock)
}

func TestNoticeRepository_InsertIfAbsent_DBError(t *testing.T) {
	repo, mock, cleanup := newNoticeRepo(t)
	defer cleanup()

	rec := testRecord()

	mock.ExpectExec("INSERT INTO notices").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.InsertIfAbsent(context.Background(), rec)
	if err == nil {
		t.Fatal("expected error from failing database")
	}

	expectationsMet(t, mock)
}
