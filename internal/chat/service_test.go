package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/llm"
	"docchat-backend/internal/transcripts"
)

type fakeLLM struct {
	summarizeCalls int
	summarizeErr   error
	summary        string

	respondCalls  int
	respondErr    error
	reply         string
	capturedText  string
	capturedTurns []llm.Turn
}

func (f *fakeLLM) Summarize(ctx context.Context, text string) (string, error) {
	f.summarizeCalls++
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return f.summary, nil
}

func (f *fakeLLM) Respond(ctx context.Context, documentText string, turns []llm.Turn) (string, error) {
	f.respondCalls++
	f.capturedText = documentText
	f.capturedTurns = append([]llm.Turn(nil), turns...)
	if f.respondErr != nil {
		return "", f.respondErr
	}
	return f.reply, nil
}

func seedDocument(t *testing.T, repo documents.Repo, userID, documentID string) {
	t.Helper()
	err := repo.Create(context.Background(), documents.Document{
		ID:        documentID,
		UserID:    userID,
		FileName:  "report.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1024,
		Text:      "the document body",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestOpenGeneratesSummaryExactlyOnce(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	provider := &fakeLLM{summary: "a concise summary"}
	svc := NewService(docs, transcripts.NewMemoryRepo(), provider, time.Second)

	first, err := svc.Open(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a concise summary", first.Summary)
	assert.Empty(t, first.SummaryError)

	second, err := svc.Open(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a concise summary", second.Summary)

	assert.Equal(t, 1, provider.summarizeCalls, "second open must reuse the stored summary")
}

func TestOpenSurvivesProviderFailureAndRetries(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	provider := &fakeLLM{summarizeErr: fmt.Errorf("%w: provider down", llm.ErrGeneration)}
	svc := NewService(docs, transcripts.NewMemoryRepo(), provider, time.Second)

	session, err := svc.Open(context.Background(), "user-1", "doc-1")
	require.NoError(t, err, "a failed summary must not fail the open")
	assert.Empty(t, session.Summary)
	assert.NotEmpty(t, session.SummaryError)

	doc, err := docs.GetByID(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	assert.Nil(t, doc.Summary, "no partial summary may be stored")

	// Provider recovers; the next open generates.
	provider.summarizeErr = nil
	provider.summary = "recovered summary"
	session, err = svc.Open(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "recovered summary", session.Summary)
	assert.Empty(t, session.SummaryError)
}

// lostRaceRepo makes every conditional summary write lose by storing a rival
// summary just before delegating.
type lostRaceRepo struct {
	*documents.MemoryRepo
}

func (r *lostRaceRepo) SetSummaryIfAbsent(ctx context.Context, documentID, summary string) error {
	if err := r.MemoryRepo.SetSummaryIfAbsent(ctx, documentID, "rival summary"); err != nil {
		return err
	}
	return r.MemoryRepo.SetSummaryIfAbsent(ctx, documentID, summary)
}

func TestOpenLostWriteRaceServesStoredSummary(t *testing.T) {
	inner := documents.NewMemoryRepo()
	seedDocument(t, inner, "user-1", "doc-1")
	docs := &lostRaceRepo{MemoryRepo: inner}
	provider := &fakeLLM{summary: "my summary"}
	svc := NewService(docs, transcripts.NewMemoryRepo(), provider, time.Second)

	session, err := svc.Open(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "rival summary", session.Summary, "the first stored summary wins")
}

func TestOpenRejectsOtherUsersDocument(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	svc := NewService(docs, transcripts.NewMemoryRepo(), &fakeLLM{}, time.Second)

	_, err := svc.Open(context.Background(), "user-2", "doc-1")
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestSendMessageReplaysTranscriptInOrder(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	tr := transcripts.NewMemoryRepo()

	base := time.Now().UTC()
	require.NoError(t, tr.Append(context.Background(), transcripts.Entry{
		ID: "m1", DocumentID: "doc-1", Role: transcripts.RoleUser, Content: "first question", CreatedAt: base,
	}))
	require.NoError(t, tr.Append(context.Background(), transcripts.Entry{
		ID: "m2", DocumentID: "doc-1", Role: transcripts.RoleAssistant, Content: "first answer", CreatedAt: base.Add(time.Second),
	}))

	provider := &fakeLLM{reply: "second answer"}
	svc := NewService(docs, tr, provider, time.Second)

	exchange, err := svc.SendMessage(context.Background(), "user-1", "doc-1", "second question")
	require.NoError(t, err)
	assert.Equal(t, transcripts.RoleUser, exchange.UserTurn.Role)
	assert.Equal(t, "second question", exchange.UserTurn.Content)
	assert.Equal(t, transcripts.RoleAssistant, exchange.AssistantTurn.Role)
	assert.Equal(t, "second answer", exchange.AssistantTurn.Content)

	assert.Equal(t, "the document body", provider.capturedText)
	require.Len(t, provider.capturedTurns, 3)
	assert.Equal(t, []llm.Turn{
		{Role: llm.RoleUser, Content: "first question"},
		{Role: llm.RoleAssistant, Content: "first answer"},
		{Role: llm.RoleUser, Content: "second question"},
	}, provider.capturedTurns)

	entries, err := tr.ListByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "second question", entries[2].Content)
	assert.Equal(t, "second answer", entries[3].Content)
}

func TestSendMessageFailureKeepsUserTurn(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	tr := transcripts.NewMemoryRepo()
	provider := &fakeLLM{respondErr: fmt.Errorf("%w: provider down", llm.ErrGeneration)}
	svc := NewService(docs, tr, provider, time.Second)

	_, err := svc.SendMessage(context.Background(), "user-1", "doc-1", "a question")
	assert.ErrorIs(t, err, llm.ErrGeneration)

	entries, lerr := tr.ListByDocument(context.Background(), "doc-1")
	require.NoError(t, lerr)
	require.Len(t, entries, 1, "the user turn must survive a failed reply")
	assert.Equal(t, transcripts.RoleUser, entries[0].Role)
	assert.Equal(t, "a question", entries[0].Content)

	// The provider recovers and the next message is answered normally, with the
	// unanswered turn still in context.
	provider.respondErr = nil
	provider.reply = "late answer"
	exchange, err := svc.SendMessage(context.Background(), "user-1", "doc-1", "a second question")
	require.NoError(t, err)
	assert.Equal(t, "late answer", exchange.AssistantTurn.Content)

	entries, lerr = tr.ListByDocument(context.Background(), "doc-1")
	require.NoError(t, lerr)
	require.Len(t, entries, 3)
	assert.Equal(t, "a question", entries[0].Content)
	assert.Equal(t, "a second question", entries[1].Content)
	assert.Equal(t, "late answer", entries[2].Content)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	svc := NewService(docs, transcripts.NewMemoryRepo(), &fakeLLM{}, time.Second)

	_, err := svc.SendMessage(context.Background(), "user-1", "doc-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestConcurrentGenerationRejected(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocument(t, docs, "user-1", "doc-1")
	svc := NewService(docs, transcripts.NewMemoryRepo(), &fakeLLM{reply: "ok"}, time.Second)

	require.True(t, svc.guard.tryAcquire("doc-1"))
	defer svc.guard.release("doc-1")

	_, err := svc.SendMessage(context.Background(), "user-1", "doc-1", "hello")
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	_, err = svc.Open(context.Background(), "user-1", "doc-1")
	assert.ErrorIs(t, err, ErrGenerationInFlight)
}
