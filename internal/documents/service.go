package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/shared/util"
)

// ExtractFunc extracts plain text from an uploaded payload.
type ExtractFunc func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)

// Service contains business logic for documents.
type Service struct {
	Store       object.ObjectStore
	Repo        Repo
	Extract     ExtractFunc
	UploadLimit int
}

// Upload enforces the quota ceiling, saves the file to object storage, extracts
// its text inline and records the document. Extraction failures do not fail the
// upload; the document is stored with empty text.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	if userID == "" {
		return Document{}, errors.New("user id required")
	}
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, ErrInvalidInput
	}

	used, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	if used >= s.UploadLimit {
		return Document{}, ErrQuotaExceeded
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, sanitized, bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	text := ""
	if s.Extract != nil {
		text, err = s.Extract(ctx, data, mimeType, sanitized)
		if err != nil {
			telemetry.Warn("documents.extract.failed", map[string]any{
				"err":      err.Error(),
				"fileName": sanitized,
				"mimeType": mimeType,
			})
			text = ""
		}
	}

	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   sanitized,
		StorageKey: storageKey,
		MimeType:   mimeType,
		SizeBytes:  size,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// GetByID fetches a document scoped to its owner.
func (s *Service) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns documents for a user, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Usage returns the upload quota snapshot. Remaining never goes below zero even
// if the stored count drifted past the ceiling.
func (s *Service) Usage(ctx context.Context, userID string) (Usage, error) {
	if userID == "" {
		return Usage{}, errors.New("user id required")
	}
	used, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	remaining := s.UploadLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Limit:     s.UploadLimit,
		Used:      used,
		Remaining: remaining,
	}, nil
}
