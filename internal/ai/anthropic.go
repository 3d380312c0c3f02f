package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// ModelHaiku is cheap and fast enough for single-command diagnosis.
	ModelHaiku = "claude-3-5-haiku-20241022"

	anthropicTimeout   = 60 * time.Second
	anthropicMaxTokens = 1024
)

// AnthropicProvider is the primary reasoning provider, backed by the
// Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates the primary provider. The API key is required;
// callers validate it at startup.
func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		model = ModelHaiku
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: &client, model: model}, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, anthropicTimeout)
	defer cancel()

	resp, err := p.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: classifyAnthropicError(err), Err: err}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrMalformed, Err: fmt.Errorf("empty response")}
	}
	return out, nil
}

// classifyAnthropicError buckets SDK errors by inspecting the error string.
// The SDK wraps HTTP failures, so the status code only appears in the text.
func classifyAnthropicError(err error) ErrorKind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "authentication"):
		return ErrAuth
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") || strings.Contains(msg, "overloaded"):
		return ErrQuota
	default:
		return ErrTransport
	}
}
