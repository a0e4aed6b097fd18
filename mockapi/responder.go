package mockapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"

	"front/models"
)

// Responder produces the assistant's reply as a sequence of chunks.
type Responder interface {
	Respond(ctx context.Context, llmID string, history []models.ChatMessage, emit func(chunk string) error) error
}

var cannedReply = []string{
	"Hello! I'm your assistant. Let me look into that for you.<br><br>",
	"<details><summary><strong>Knowledge base search</strong></summary>",
	"<ul><li>Searching the uploaded documents for relevant passages</li><li>Ranking the matches by relevance</li></ul></details><br>",
	"<details><summary><strong>Query execution</strong></summary>",
	"<ul><li>Building the query from what was found</li><li>Running it against the index</li></ul></details><br>",
	"Based on my analysis, here's what I found:<br><br>",
	"<strong>Overview:</strong> transaction volume grew 23% over the past month, peaking on weekday afternoons.<br><br>",
	"Let me know if you'd like me to dig deeper into any of these points.",
}

// CannedResponder replays a fixed reply with a pause before every chunk.
type CannedResponder struct {
	delay  time.Duration
	chunks []string
}

func NewCannedResponder(delay time.Duration) *CannedResponder {
	return &CannedResponder{delay: delay, chunks: cannedReply}
}

func (r *CannedResponder) Respond(ctx context.Context, _ string, _ []models.ChatMessage, emit func(chunk string) error) error {
	for _, chunk := range r.chunks {
		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

// OpenAIResponder streams a real completion for the conversation history.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(apiKey, baseURL, model string) *OpenAIResponder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIResponder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (r *OpenAIResponder) Respond(ctx context.Context, llmID string, history []models.ChatMessage, emit func(chunk string) error) error {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("You are a helpful assistant. The user picked the %q model.", llmID),
		},
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.SenderType == models.SenderTypeBot {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("OpenAI API error: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("OpenAI stream error: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := emit(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}
