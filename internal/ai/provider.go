// Package ai turns a problem description into a remediation suggestion.
//
// It holds the reasoning-provider abstraction, the concrete Anthropic and
// OpenAI-compatible providers, the ordered failover chain with its shared
// backoff state, and the strict parser that extracts a command from raw
// provider output.
package ai

import (
	"context"
	"fmt"
)

// SystemPrompt is the fixed instruction sent with every provider call. The
// final-line contract is what the parser depends on.
const SystemPrompt = "You are a Linux sysadmin. Analyze the error. Output a brief diagnosis, " +
	"then the last line MUST be exactly the shell command to fix it. No markdown, no extra formatting. " +
	"If the fix is destructive or high-impact, prefix the command line with MAJOR: ."

// Provider is a single reasoning backend capable of completing a prompt.
type Provider interface {
	// Name identifies the provider in logs and call counters.
	Name() string

	// Complete sends the system instruction plus the problem description and
	// returns the raw response text. Failures are returned as *ProviderError.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	ErrTransport ErrorKind = "transport"
	ErrAuth      ErrorKind = "auth"
	ErrQuota     ErrorKind = "quota"
	ErrMalformed ErrorKind = "malformed"
)

// ProviderError is a failed call to a single provider. The chain recovers
// from these by trying the next provider or entering backoff; they never
// reach the engine directly.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return ErrAuth
	case status == 429:
		return ErrQuota
	default:
		return ErrTransport
	}
}
