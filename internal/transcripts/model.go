package transcripts

import "time"

// Role names for transcript entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is one turn of a document's chat transcript.
type Entry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
