package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Request is one generation call on behalf of a worker.
type Request struct {
	// WorkerName identifies the worker whose voice generates the reply.
	WorkerName string
	// System is the worker's persona prompt. System turns in History are
	// appended after it as additional context blocks.
	System string
	// History is the conversation window, oldest first.
	History []models.ConversationTurn
	// MaxTokens bounds the reply length; 0 uses the default.
	MaxTokens int64
}

// Generator produces a worker reply for a conversation window. The
// concrete implementation talks to the Anthropic API; tests substitute
// their own.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Compile-time verification that Client implements Generator.
var _ Generator = (*Client)(nil)

const defaultMaxTokens = 8192

// Generate sends the conversation window to the API and returns the
// joined text of the reply. System turns become system context blocks;
// user and assistant turns are forwarded as-is.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	system := []anthropic.TextBlockParam{{Text: req.System}}
	var messages []anthropic.MessageParam

	for _, turn := range req.History {
		switch turn.Role {
		case models.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: turn.Content})
		case models.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("generate for %s: empty conversation", req.WorkerName)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("generate for %s: %w", req.WorkerName, err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var parts []string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
