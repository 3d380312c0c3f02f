// Package engine implements the remediation decision flow: cached fix first,
// AI fallback, learn on success.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/arjunvk16/pi-monitor/internal/ai"
	"github.com/arjunvk16/pi-monitor/internal/executor"
	"github.com/arjunvk16/pi-monitor/internal/history"
	"github.com/arjunvk16/pi-monitor/internal/memory"
	"github.com/arjunvk16/pi-monitor/internal/notify"
)

// ProblemReport identifies a detected problem.
type ProblemReport struct {
	// Key is the stable identity for this class of problem, used for
	// fix-cache lookup (e.g. "nas_down").
	Key string
	// Description is the human-readable problem statement handed to the
	// reasoning providers.
	Description string
}

// Outcome is the tagged result of one Troubleshoot invocation.
type Outcome int

const (
	// Failed means a command was attempted and did not fix the problem.
	Failed Outcome = iota
	// Unavailable means no command could even be attempted because the
	// provider chain was down or cooling off.
	Unavailable
	// Fixed means a fresh AI-suggested command succeeded (and was learned).
	Fixed
	// FixedViaMemory means a previously learned command succeeded.
	FixedViaMemory
)

// IsFixed reports whether the problem was resolved.
func (o Outcome) IsFixed() bool {
	return o == Fixed || o == FixedViaMemory
}

func (o Outcome) String() string {
	switch o {
	case Fixed:
		return "fixed"
	case FixedViaMemory:
		return "fixed_via_memory"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Asker produces remediation suggestions. Satisfied by *ai.Chain.
type Asker interface {
	Ask(ctx context.Context, description string) (*ai.Suggestion, error)
}

// Recorder persists attempt records. Satisfied by *history.Store.
type Recorder interface {
	Record(ctx context.Context, a *history.Attempt) error
}

// ExecPolicy is consulted before any suggested command is executed. The
// default policy approves everything, including suggestions classified major;
// a stricter deployment can plug in a policy that demands confirmation
// without touching the engine.
type ExecPolicy interface {
	// Approve returns whether the command may run, with a reason on denial.
	Approve(ctx context.Context, s *ai.Suggestion) (bool, string)
}

// AllowAllPolicy approves every suggestion.
type AllowAllPolicy struct{}

// Approve implements ExecPolicy.
func (AllowAllPolicy) Approve(context.Context, *ai.Suggestion) (bool, string) {
	return true, ""
}

// Engine orchestrates FixMemory and the provider chain per detected problem
// and owns the learn-on-success policy.
type Engine struct {
	memory   *memory.FixMemory
	chain    Asker
	exec     executor.Executor
	notifier notify.Notifier
	policy   ExecPolicy
	recorder Recorder

	// inflight serializes Troubleshoot: at most one remediation is ever in
	// flight per process.
	inflight *semaphore.Weighted
}

// Deps holds the engine's collaborators.
type Deps struct {
	Memory   *memory.FixMemory
	Chain    Asker
	Executor executor.Executor
	Notifier notify.Notifier
	// Policy defaults to AllowAllPolicy.
	Policy ExecPolicy
	// Recorder is optional; attempts are simply not persisted without it.
	Recorder Recorder
}

// New creates a remediation engine.
func New(deps *Deps) (*Engine, error) {
	if deps.Memory == nil {
		return nil, fmt.Errorf("fix memory is required")
	}
	if deps.Chain == nil {
		return nil, fmt.Errorf("provider chain is required")
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	policy := deps.Policy
	if policy == nil {
		policy = AllowAllPolicy{}
	}
	return &Engine{
		memory:   deps.Memory,
		chain:    deps.Chain,
		exec:     deps.Executor,
		notifier: deps.Notifier,
		policy:   policy,
		recorder: deps.Recorder,
		inflight: semaphore.NewWeighted(1),
	}, nil
}

// Troubleshoot attempts to fix the reported problem. The flow is a single
// pass: try the remembered fix if one exists, otherwise (or if it fails) ask
// the provider chain, execute the suggestion, and learn it on success. Each
// branch gets exactly one execution attempt; the same command is never
// retried within an invocation.
func (e *Engine) Troubleshoot(ctx context.Context, report ProblemReport) Outcome {
	if err := e.inflight.Acquire(ctx, 1); err != nil {
		fmt.Printf("Engine: troubleshoot aborted before start: %v\n", err)
		return Failed
	}
	defer e.inflight.Release(1)

	attemptID := uuid.New().String()[:8]
	started := time.Now()
	description := report.Description

	e.notifier.Send(ctx, fmt.Sprintf("⚠️ *Issue Detected*: %s", description))

	// Memory branch.
	if cached, ok := e.memory.Get(report.Key); ok {
		e.notifier.Send(ctx, fmt.Sprintf("🧠 *Memory*: I know this issue. Trying learned fix:\n`%s`", cached))

		success, output := e.exec.Execute(ctx, cached)
		if success {
			e.notifier.Send(ctx, fmt.Sprintf("✅ *Fixed via Memory*: %s", truncate(output, 200)))
			e.record(ctx, &history.Attempt{
				AttemptID:    attemptID,
				ProblemKey:   report.Key,
				Description:  description,
				Source:       history.SourceMemory,
				Command:      cached,
				Success:      true,
				OutputSample: truncate(output, 200),
				StartedAt:    started,
				CompletedAt:  time.Now(),
			})
			return FixedViaMemory
		}

		// The cached entry stays untouched on failure; only a fresh
		// AI-derived success may overwrite it.
		e.notifier.Send(ctx, fmt.Sprintf("❌ *Memory Failed*: Cached fix didn't work. Output: %s\nAsking AI...", truncate(output, 100)))
		description += fmt.Sprintf("\nNote: I already tried '%s' and it failed.", cached)
	}

	// AI branch.
	suggestion, err := e.chain.Ask(ctx, description)
	if err != nil {
		e.notifier.Send(ctx, fmt.Sprintf("🛑 *AI Failure*: %v", err))
		e.record(ctx, &history.Attempt{
			AttemptID:   attemptID,
			ProblemKey:  report.Key,
			Description: description,
			Source:      history.SourceNone,
			StartedAt:   started,
			CompletedAt: time.Now(),
		})
		return Unavailable
	}

	if ok, reason := e.policy.Approve(ctx, suggestion); !ok {
		e.notifier.Send(ctx, fmt.Sprintf("🚫 *Execution Denied*: `%s` (%s)", suggestion.Command, reason))
		e.record(ctx, &history.Attempt{
			AttemptID:   attemptID,
			ProblemKey:  report.Key,
			Description: description,
			Source:      history.SourceAI,
			Command:     suggestion.Command,
			IsMajor:     suggestion.IsMajor,
			StartedAt:   started,
			CompletedAt: time.Now(),
		})
		return Failed
	}

	label := ""
	if suggestion.IsMajor {
		label = " (HIGH IMPACT)"
	}
	e.notifier.Send(ctx, fmt.Sprintf("🤖 *AI Suggests*%s: `%s`\nExecuting...", label, suggestion.Command))

	success, output := e.exec.Execute(ctx, suggestion.Command)
	outcome := Failed
	if success {
		// Learn on success only. A persistence failure keeps the in-memory
		// entry, so this process still benefits.
		if err := e.memory.Learn(report.Key, suggestion.Command); err != nil {
			fmt.Printf("Engine: %v\n", err)
		}
		e.notifier.Send(ctx, fmt.Sprintf("✅ *AI Fixed It*: %s", truncate(output, 200)))
		outcome = Fixed
	} else {
		e.notifier.Send(ctx, fmt.Sprintf("❌ *AI Fix Failed*: %s", truncate(output, 200)))
	}

	e.record(ctx, &history.Attempt{
		AttemptID:    attemptID,
		ProblemKey:   report.Key,
		Description:  description,
		Source:       history.SourceAI,
		Command:      suggestion.Command,
		IsMajor:      suggestion.IsMajor,
		Success:      success,
		OutputSample: truncate(output, 200),
		StartedAt:    started,
		CompletedAt:  time.Now(),
	})
	return outcome
}

// record persists an attempt best-effort.
func (e *Engine) record(ctx context.Context, a *history.Attempt) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, a); err != nil {
		fmt.Printf("Engine: failed to record attempt %s: %v\n", a.AttemptID, err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
