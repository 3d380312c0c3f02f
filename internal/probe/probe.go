// Package probe holds the host health checks the monitor loop evaluates each
// cycle. Probes are thin: they answer healthy-or-not with a human-readable
// detail and leave all remediation policy to the engine.
package probe

import (
	"context"
	"fmt"

	"github.com/arjunvk16/pi-monitor/internal/executor"
)

// Probe is a single monitored condition.
type Probe interface {
	// Name is a human-readable label for logs.
	Name() string

	// Key is the stable problem identity used for fix-cache lookup.
	Key() string

	// Check reports whether the condition is healthy. The detail describes
	// the problem when unhealthy.
	Check(ctx context.Context) (healthy bool, detail string)
}

// MountProbe checks that a filesystem is mounted at the configured point.
type MountProbe struct {
	exec       executor.Executor
	mountPoint string
}

// NewMountProbe creates a probe for the given mount point.
func NewMountProbe(exec executor.Executor, mountPoint string) *MountProbe {
	return &MountProbe{exec: exec, mountPoint: mountPoint}
}

func (p *MountProbe) Name() string { return "nas-mount" }
func (p *MountProbe) Key() string  { return "nas_down" }

// Check implements Probe.
func (p *MountProbe) Check(ctx context.Context) (bool, string) {
	mounted, _ := p.exec.Execute(ctx, fmt.Sprintf("mount | grep '%s'", p.mountPoint))
	if mounted {
		return true, ""
	}
	return false, fmt.Sprintf("NAS at %s is not mounted.", p.mountPoint)
}

// ServiceProbe checks that a systemd unit is active.
type ServiceProbe struct {
	exec executor.Executor
	unit string
}

// NewServiceProbe creates a probe for the given systemd unit.
func NewServiceProbe(exec executor.Executor, unit string) *ServiceProbe {
	return &ServiceProbe{exec: exec, unit: unit}
}

func (p *ServiceProbe) Name() string { return "service-" + p.unit }

func (p *ServiceProbe) Key() string { return p.unit + "_down" }

// Check implements Probe.
func (p *ServiceProbe) Check(ctx context.Context) (bool, string) {
	active, _ := p.exec.Execute(ctx, "systemctl is-active "+p.unit)
	if active {
		return true, ""
	}
	return false, fmt.Sprintf("Service '%s' is inactive.", p.unit)
}
