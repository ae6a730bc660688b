package chat

import (
	"time"

	"docchat-backend/internal/transcripts"
)

// SessionResponse is the outward-facing session payload.
type SessionResponse struct {
	Document     SessionDocument   `json:"document"`
	Summary      string            `json:"summary"`
	SummaryError string            `json:"summaryError,omitempty"`
	Messages     []MessageResponse `json:"messages"`
}

// SessionDocument is the document header inside a session payload.
type SessionDocument struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// MessageResponse is one transcript turn in a session payload.
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSessionResponse(session Session) SessionResponse {
	messages := make([]MessageResponse, 0, len(session.Messages))
	for _, entry := range session.Messages {
		messages = append(messages, toMessageResponse(entry))
	}
	return SessionResponse{
		Document: SessionDocument{
			DocumentID: session.Document.ID,
			FileName:   session.Document.FileName,
			MimeType:   session.Document.MimeType,
			SizeBytes:  session.Document.SizeBytes,
			UploadedAt: session.Document.CreatedAt,
		},
		Summary:      session.Summary,
		SummaryError: session.SummaryError,
		Messages:     messages,
	}
}

func toMessageResponse(entry transcripts.Entry) MessageResponse {
	return MessageResponse{
		ID:        entry.ID,
		Role:      entry.Role,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt,
	}
}
