package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    storage_provider,
    storage_key,
    mime_type,
    size_bytes,
    doc_text,
    summary,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, $9)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		storageProvider,
		doc.StorageKey,
		doc.MimeType,
		doc.SizeBytes,
		doc.Text,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT id, user_id, file_name, storage_provider, storage_key, mime_type, size_bytes, doc_text, summary, created_at
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	var doc Document
	var summary sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID, documentID).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.StorageProvider,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.Text,
		&summary,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if summary.Valid {
		doc.Summary = &summary.String
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, file_name, storage_provider, storage_key, mime_type, size_bytes, doc_text, summary, created_at
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var summary sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.FileName,
			&doc.StorageProvider,
			&doc.StorageKey,
			&doc.MimeType,
			&doc.SizeBytes,
			&doc.Text,
			&summary,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if summary.Valid {
			doc.Summary = &summary.String
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// CountByUser counts all documents a user has uploaded.
func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE user_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SetSummaryIfAbsent stores the summary with a conditional update so only the
// first writer wins. A zero rows-affected result means a summary was already
// present (or the document is gone).
func (r *PGRepo) SetSummaryIfAbsent(ctx context.Context, documentID, summary string) error {
	const query = `
UPDATE documents
SET summary = $1
WHERE id = $2 AND summary IS NULL`
	res, err := r.DB.ExecContext(ctx, query, summary, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSummaryExists
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
