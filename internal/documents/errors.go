package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist or is not owned by the caller.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed upload request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrQuotaExceeded indicates the user has reached the upload ceiling.
	ErrQuotaExceeded = errors.New("upload quota exceeded")
	// ErrSummaryExists indicates a concurrent writer already stored a summary.
	ErrSummaryExists = errors.New("summary already set")
)
