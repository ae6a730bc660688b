package documents

import "time"

// Document represents an uploaded document owned by a user. Text holds the
// extracted plain text used as LLM context; Summary is nil until the one-shot
// summary has been generated.
type Document struct {
	ID              string
	UserID          string
	FileName        string
	StorageProvider string
	StorageKey      string
	MimeType        string
	SizeBytes       int64
	Text            string
	Summary         *string
	CreatedAt       time.Time
}

// Usage is a snapshot of a user's upload quota.
type Usage struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}
