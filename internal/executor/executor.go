// Package executor is the privileged bridge that runs remediation commands on
// the host.
package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Executor runs a shell command and reports whether it succeeded along with
// its combined output. A timeout surfaces as success=false like any other
// failure.
type Executor interface {
	Execute(ctx context.Context, command string) (success bool, output string)
}

// HostExecutor shells out on the host with a bounded timeout. When the daemon
// runs inside a container, nsenter re-enters the host namespaces via PID 1 so
// commands act on the host rather than the container.
type HostExecutor struct {
	// Timeout bounds each command. A command that exceeds it is killed and
	// reported as failed.
	Timeout time.Duration

	// UseNsenter wraps commands in nsenter for containerized deployments.
	UseNsenter bool
}

// NewHostExecutor creates a host executor with the given command timeout.
func NewHostExecutor(timeout time.Duration, useNsenter bool) *HostExecutor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HostExecutor{Timeout: timeout, UseNsenter: useNsenter}
}

// Execute implements Executor.
func (e *HostExecutor) Execute(ctx context.Context, command string) (bool, string) {
	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	if e.UseNsenter {
		cmd = exec.CommandContext(runCtx, "nsenter", "-t", "1", "-m", "-u", "-n", "-i", "sh", "-c", command)
	} else {
		cmd = exec.CommandContext(runCtx, "sh", "-c", command)
	}

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return false, fmt.Sprintf("command timed out after %v: %s", e.Timeout, output)
		}
		if output == "" {
			output = err.Error()
		}
		return false, output
	}
	return true, output
}
