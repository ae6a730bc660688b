package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"docchat-backend/internal/llm"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

const (
	summarySystemPrompt = "You are a helpful assistant that summarizes PDF content clearly and concisely."
	summaryUserPrompt   = "Please summarize the following text: %s"
	chatSystemPrompt    = "You are a helpful assistant analyzing a PDF document. Here's the context: %s"

	maxCompletionTokens = 500
	temperature         = float32(0.7)
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. Timeout bounds each provider call;
// zero falls back to 60s.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Summarize asks the model for a one-shot summary of the document text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: fmt.Sprintf(summaryUserPrompt, text)},
	}
	return c.complete(ctx, messages)
}

// Respond asks the model for the next assistant turn. The document text is the
// system context; turns are relayed in conversational order.
func (c *Client) Respond(ctx context.Context, documentText string, turns []llm.Turn) (string, error) {
	messages := make([]chatMessage, 0, len(turns)+1)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: fmt.Sprintf(chatSystemPrompt, documentText),
	})
	for _, turn := range turns {
		role := "assistant"
		if turn.Role == llm.RoleUser {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Content})
	}
	return c.complete(ctx, messages)
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	temp := temperature
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temp,
		MaxTokens:   maxCompletionTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", llm.ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", llm.ErrGeneration, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("%w: openai request timeout: %v", llm.ErrGeneration, err)
		}
		return "", fmt.Errorf("%w: %v", llm.ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", llm.ErrGeneration, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: openai response parse: %v", llm.ErrGeneration, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: openai error: %s (%s)", llm.ErrGeneration, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response missing choices", llm.ErrGeneration)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: openai response empty content", llm.ErrGeneration)
	}
	logUsage(c.model, parsed.Usage)
	return content, nil
}

func logUsage(model string, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	if usage == nil {
		log.Printf("llm response model=%s", model)
		return
	}
	log.Printf("llm response model=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

var _ llm.Client = (*Client)(nil)
