package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arjunvk16/pi-monitor/internal/notify"
)

// ErrUnavailable is returned when no suggestion can be produced this cycle:
// either every provider failed or the chain is cooling down. It is a
// deliberate short-circuit, not a failure of the calling cycle.
var ErrUnavailable = errors.New("reasoning providers unavailable")

// backoffState is the shared cooldown across the whole chain. It is global
// rather than per problem key: one provider outage affects remediation for
// every problem. The wait only ever doubles; a later successful call does not
// reset it. Unbounded growth after a bad streak is a known property of this
// design (see DESIGN.md).
type backoffState struct {
	active       bool
	wait         time.Duration
	nextEligible time.Time
}

// BackoffSnapshot is a copy of the backoff state for inspection.
type BackoffSnapshot struct {
	Active       bool
	Wait         time.Duration
	NextEligible time.Time
}

// Chain tries reasoning providers in fixed priority order, with shared
// exponential backoff protecting against hammering every provider on every
// poll cycle during a sustained outage.
type Chain struct {
	// mu guards the whole Ask decision so concurrent all-failed events cannot
	// each double the wait from a stale read.
	mu sync.Mutex

	providers  []Provider
	backoff    backoffState
	classifier *SeverityClassifier
	notifier   notify.Notifier

	// callCounts increments per provider call. Diagnostic only.
	callCounts map[string]uint64

	now func() time.Time
}

// ChainConfig holds chain construction parameters.
type ChainConfig struct {
	// Providers in priority order. At least one is required.
	Providers []Provider
	// BaseBackoff is the first cooldown window after a full-chain failure.
	BaseBackoff time.Duration
	// Classifier marks dangerous commands. Required.
	Classifier *SeverityClassifier
	// Notifier mirrors failover and backoff transitions to the operator.
	// Optional.
	Notifier notify.Notifier
}

// NewChain creates a provider chain.
func NewChain(cfg *ChainConfig) (*Chain, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("severity classifier is required")
	}
	base := cfg.BaseBackoff
	if base <= 0 {
		base = 5 * time.Minute
	}
	return &Chain{
		providers:  cfg.Providers,
		backoff:    backoffState{wait: base},
		classifier: cfg.Classifier,
		notifier:   cfg.Notifier,
		callCounts: make(map[string]uint64),
		now:        time.Now,
	}, nil
}

// Ask produces a remediation suggestion for the problem description, trying
// providers in order. It returns ErrUnavailable when the chain is cooling
// down or every provider failed.
func (c *Chain) Ask(ctx context.Context, description string) (*Suggestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	// Cooldown gate. The only branch with zero external calls.
	if c.backoff.active && now.Before(c.backoff.nextEligible) {
		fmt.Printf("AI chain: cooling down until %s, skipping providers\n",
			c.backoff.nextEligible.Format("15:04:05"))
		return nil, ErrUnavailable
	}

	for i, p := range c.providers {
		c.callCounts[p.Name()]++
		fmt.Printf("AI chain: %s call #%d\n", p.Name(), c.callCounts[p.Name()])

		raw, err := p.Complete(ctx, SystemPrompt, description)
		if err == nil {
			suggestion, parseErr := ParseSuggestion(raw, c.classifier)
			if parseErr == nil {
				return suggestion, nil
			}
			// A response that violates the contract counts as a provider
			// failure; the next provider gets its chance.
			err = &ProviderError{Provider: p.Name(), Kind: ErrMalformed, Err: parseErr}
		}

		fmt.Printf("AI chain: %s failed: %v\n", p.Name(), err)
		if i < len(c.providers)-1 {
			c.send(ctx, fmt.Sprintf("⚠️ %s failed, switching to %s...", p.Name(), c.providers[i+1].Name()))
		}
	}

	// Every provider failed: schedule the cooldown window, then double the
	// wait for the next one.
	wait := c.backoff.wait
	c.backoff.active = true
	c.backoff.nextEligible = now.Add(wait)
	c.backoff.wait = wait * 2

	fmt.Printf("AI chain: all providers failed, backing off %v\n", wait)
	c.send(ctx, fmt.Sprintf("💀 All AI providers failed. Cooling down for %v.", wait))
	return nil, ErrUnavailable
}

// BackoffSnapshot returns a copy of the current backoff state.
func (c *Chain) BackoffSnapshot() BackoffSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BackoffSnapshot{
		Active:       c.backoff.active,
		Wait:         c.backoff.wait,
		NextEligible: c.backoff.nextEligible,
	}
}

// CallCounts returns a copy of the per-provider call counters.
func (c *Chain) CallCounts() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[string]uint64, len(c.callCounts))
	for k, v := range c.callCounts {
		counts[k] = v
	}
	return counts
}

func (c *Chain) send(ctx context.Context, msg string) {
	if c.notifier != nil {
		c.notifier.Send(ctx, msg)
	}
}
