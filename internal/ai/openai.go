package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o-mini"

	openAITimeout   = 60 * time.Second
	openAIMaxTokens = 1024
)

// OpenAIProvider is the optional fallback tier, speaking the
// chat-completions wire format directly over HTTP. Any OpenAI-compatible
// endpoint works.
type OpenAIProvider struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewOpenAIProvider creates the fallback provider.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      model,
		endpoint:   defaultOpenAIEndpoint,
		httpClient: &http.Client{Timeout: openAITimeout},
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatCompletionRequest{
		Model:     p.model,
		MaxTokens: openAIMaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrTransport, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &ProviderError{
			Provider: p.Name(),
			Kind:     classifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrMalformed, Err: err}
	}
	if len(decoded.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrMalformed, Err: fmt.Errorf("no choices in response")}
	}

	out := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if out == "" {
		return "", &ProviderError{Provider: p.Name(), Kind: ErrMalformed, Err: fmt.Errorf("empty response")}
	}
	return out, nil
}
