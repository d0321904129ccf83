package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// CompletionRequest describes one agent invocation against the model.
type CompletionRequest struct {
	// Model is the model id. Empty means the client's configured model.
	Model string
	// System is the role-specific system prompt.
	System string
	// Prompt is the assembled user prompt (task plus context).
	Prompt string
	// Temperature is the sampling temperature (0.0-1.0).
	Temperature float64
	// MaxTokens caps the output length. Zero means the SDK default of 8192.
	MaxTokens int
}

// CompletionResult holds the model output and usage for one invocation.
type CompletionResult struct {
	// Text is the concatenated text content of the response.
	Text string
	// Model is the model that actually served the request.
	Model string
	// InputTokens is the input token count reported by the API.
	InputTokens int64
	// OutputTokens is the output token count reported by the API.
	OutputTokens int64
	// StopReason reports why generation ended (end_turn, max_tokens, ...).
	StopReason string
}

// Completer is the interface workflow steps use to call the model.
// It exists so tests can substitute a fake client.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// Complete performs a single message call and returns the text result.
// There is no retry; overload errors surface to the caller, which may
// re-issue the request against a fallback model.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	model := c.model
	if req.Model != "" {
		model = c.TranslateModel(anthropic.Model(req.Model))
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := c.sdk().Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("messages.new: %w", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}

	return &CompletionResult{
		Text:         sb.String(),
		Model:        string(model),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		StopReason:   string(resp.StopReason),
	}, nil
}

// IsOverloaded reports whether an error looks like an API overload or
// rate-limit condition that a fallback model might avoid.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "529")
}
