package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/llm"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/transcripts"
)

const defaultGenerationTimeout = 60 * time.Second

// Session is the full state a client needs to render a document chat: the
// document, its summary (empty until generated) and the transcript oldest-first.
type Session struct {
	Document documents.Document
	Summary  string
	// SummaryError is set when this open attempted generation and the provider
	// failed. The session is still usable; the next open retries.
	SummaryError string
	Messages     []transcripts.Entry
}

// Service orchestrates document sessions: one-shot summaries and chat turns.
type Service struct {
	Docs        documents.Repo
	Transcripts transcripts.Repo
	LLM         llm.Client
	// Timeout bounds each provider call; zero falls back to 60s.
	Timeout time.Duration

	guard *inflight
}

// NewService constructs a chat Service.
func NewService(docs documents.Repo, tr transcripts.Repo, client llm.Client, timeout time.Duration) *Service {
	return &Service{
		Docs:        docs,
		Transcripts: tr,
		LLM:         client,
		Timeout:     timeout,
		guard:       newInflight(),
	}
}

// Open loads the session for a document. When the document has no summary yet,
// it generates one and stores it with a conditional write so concurrent opens
// produce exactly one stored summary. A provider failure does not fail the
// open; the session is returned with SummaryError set and generation is
// retried on the next open.
func (s *Service) Open(ctx context.Context, userID, documentID string) (Session, error) {
	doc, err := s.Docs.GetByID(ctx, userID, documentID)
	if err != nil {
		return Session{}, err
	}

	entries, err := s.Transcripts.ListByDocument(ctx, documentID)
	if err != nil {
		return Session{}, err
	}

	session := Session{Document: doc, Messages: entries}

	if doc.Summary != nil {
		metrics.IncSummaryReused()
		session.Summary = *doc.Summary
		return session, nil
	}

	if !s.guard.tryAcquire(documentID) {
		return Session{}, ErrGenerationInFlight
	}
	defer s.guard.release(documentID)

	// Re-read under the guard: a writer may have finished between the first
	// read and the acquire.
	doc, err = s.Docs.GetByID(ctx, userID, documentID)
	if err != nil {
		return Session{}, err
	}
	session.Document = doc
	if doc.Summary != nil {
		metrics.IncSummaryReused()
		session.Summary = *doc.Summary
		return session, nil
	}

	summary, err := s.generateSummary(ctx, doc)
	if err != nil {
		metrics.IncSummaryFailed()
		telemetry.Error("chat.summary.failed", map[string]any{
			"err":        err.Error(),
			"documentId": documentID,
		})
		session.SummaryError = "summary generation failed"
		return session, nil
	}

	if err := s.Docs.SetSummaryIfAbsent(ctx, documentID, summary); err != nil {
		if errors.Is(err, documents.ErrSummaryExists) {
			// Lost the write race; serve the stored summary.
			stored, rerr := s.Docs.GetByID(ctx, userID, documentID)
			if rerr != nil {
				return Session{}, rerr
			}
			metrics.IncSummaryReused()
			session.Document = stored
			if stored.Summary != nil {
				session.Summary = *stored.Summary
			}
			return session, nil
		}
		return Session{}, err
	}

	metrics.IncSummaryGenerated()
	session.Document.Summary = &summary
	session.Summary = summary
	return session, nil
}

// Exchange is the outcome of one accepted user message.
type Exchange struct {
	UserTurn      transcripts.Entry
	AssistantTurn transcripts.Entry
}

// SendMessage appends the user turn, asks the provider for a reply with the
// full transcript as context, and appends the assistant turn. When the
// provider fails, the user turn stays in the transcript and the error is
// returned.
func (s *Service) SendMessage(ctx context.Context, userID, documentID, content string) (Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Exchange{}, ErrEmptyMessage
	}

	doc, err := s.Docs.GetByID(ctx, userID, documentID)
	if err != nil {
		return Exchange{}, err
	}

	if !s.guard.tryAcquire(documentID) {
		return Exchange{}, ErrGenerationInFlight
	}
	defer s.guard.release(documentID)

	prior, err := s.Transcripts.ListByDocument(ctx, documentID)
	if err != nil {
		return Exchange{}, err
	}

	userEntry := transcripts.Entry{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Role:       transcripts.RoleUser,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Transcripts.Append(ctx, userEntry); err != nil {
		return Exchange{}, err
	}

	turns := make([]llm.Turn, 0, len(prior)+1)
	for _, entry := range prior {
		turns = append(turns, llm.Turn{Role: entry.Role, Content: entry.Content})
	}
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Content: content})

	reply, err := s.respond(ctx, doc.Text, turns)
	if err != nil {
		metrics.IncChatFailed()
		telemetry.Error("chat.reply.failed", map[string]any{
			"err":        err.Error(),
			"documentId": documentID,
		})
		return Exchange{}, err
	}

	assistantEntry := transcripts.Entry{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Role:       transcripts.RoleAssistant,
		Content:    reply,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Transcripts.Append(ctx, assistantEntry); err != nil {
		return Exchange{}, err
	}

	metrics.IncChatReplied()
	return Exchange{UserTurn: userEntry, AssistantTurn: assistantEntry}, nil
}

func (s *Service) generateSummary(ctx context.Context, doc documents.Document) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, s.generationTimeout())
	defer cancel()

	start := time.Now()
	summary, err := s.LLM.Summarize(tctx, doc.Text)
	metrics.ObserveGenerationDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (s *Service) respond(ctx context.Context, documentText string, turns []llm.Turn) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, s.generationTimeout())
	defer cancel()

	start := time.Now()
	reply, err := s.LLM.Respond(tctx, documentText, turns)
	metrics.ObserveGenerationDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Service) generationTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultGenerationTimeout
}
