package transcripts

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts a transcript entry.
func (r *PGRepo) Append(ctx context.Context, entry Entry) error {
	if !ValidRole(entry.Role) {
		return ErrInvalidRole
	}
	const query = `
INSERT INTO messages (id, document_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.DocumentID,
		entry.Role,
		entry.Content,
		entry.CreatedAt,
	)
	return err
}

// ListByDocument returns the transcript oldest-first. Ties on created_at break
// on id so replay order is stable.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Entry, error) {
	const query = `
SELECT id, document_id, role, content, created_at
FROM messages
WHERE document_id = $1
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.DocumentID,
			&entry.Role,
			&entry.Content,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
