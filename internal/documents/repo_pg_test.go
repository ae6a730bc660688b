package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateDefaultsStorageProvider(t *testing.T) {
	repo, mock := newMockRepo(t)

	doc := Document{
		ID:         "doc-1",
		UserID:     "user-1",
		FileName:   "report.pdf",
		StorageKey: "user-1/doc-1/report.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  1024,
		Text:       "extracted body",
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.UserID,
			doc.FileName,
			"local",
			doc.StorageKey,
			doc.MimeType,
			doc.SizeBytes,
			doc.Text,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSetSummaryIfAbsentWins(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("a short summary", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetSummaryIfAbsent(context.Background(), "doc-1", "a short summary"); err != nil {
		t.Fatalf("SetSummaryIfAbsent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSetSummaryIfAbsentLosesRace(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("a late summary", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetSummaryIfAbsent(context.Background(), "doc-1", "a late summary")
	if !errors.Is(err, ErrSummaryExists) {
		t.Fatalf("expected ErrSummaryExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCountByUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("user-2", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "file_name", "storage_provider", "storage_key",
			"mime_type", "size_bytes", "doc_text", "summary", "created_at",
		}))

	_, err := repo.GetByID(context.Background(), "user-2", "doc-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
