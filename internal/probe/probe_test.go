package probe

import (
	"context"
	"strings"
	"testing"
)

// scriptedExecutor answers with a fixed result and records commands.
type scriptedExecutor struct {
	success  bool
	output   string
	commands []string
}

func (e *scriptedExecutor) Execute(_ context.Context, command string) (bool, string) {
	e.commands = append(e.commands, command)
	return e.success, e.output
}

func TestMountProbe(t *testing.T) {
	t.Run("mounted", func(t *testing.T) {
		exec := &scriptedExecutor{success: true, output: "//nas/share on /mnt/nas type cifs"}
		p := NewMountProbe(exec, "/mnt/nas")

		healthy, _ := p.Check(context.Background())
		if !healthy {
			t.Error("expected healthy")
		}
		if len(exec.commands) != 1 || !strings.Contains(exec.commands[0], "/mnt/nas") {
			t.Errorf("unexpected commands: %v", exec.commands)
		}
	})

	t.Run("not mounted", func(t *testing.T) {
		exec := &scriptedExecutor{success: false}
		p := NewMountProbe(exec, "/mnt/nas")

		healthy, detail := p.Check(context.Background())
		if healthy {
			t.Error("expected unhealthy")
		}
		if detail != "NAS at /mnt/nas is not mounted." {
			t.Errorf("detail = %q", detail)
		}
	})

	t.Run("key is stable", func(t *testing.T) {
		p := NewMountProbe(&scriptedExecutor{}, "/mnt/nas")
		if p.Key() != "nas_down" {
			t.Errorf("key = %q, want nas_down", p.Key())
		}
	})
}

func TestServiceProbe(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		exec := &scriptedExecutor{success: true, output: "active"}
		p := NewServiceProbe(exec, "cockpit.service")

		healthy, _ := p.Check(context.Background())
		if !healthy {
			t.Error("expected healthy")
		}
		if exec.commands[0] != "systemctl is-active cockpit.service" {
			t.Errorf("command = %q", exec.commands[0])
		}
	})

	t.Run("inactive", func(t *testing.T) {
		exec := &scriptedExecutor{success: false, output: "inactive"}
		p := NewServiceProbe(exec, "cockpit.service")

		healthy, detail := p.Check(context.Background())
		if healthy {
			t.Error("expected unhealthy")
		}
		if detail != "Service 'cockpit.service' is inactive." {
			t.Errorf("detail = %q", detail)
		}
	})

	t.Run("key includes unit", func(t *testing.T) {
		p := NewServiceProbe(&scriptedExecutor{}, "cockpit.service")
		if p.Key() != "cockpit.service_down" {
			t.Errorf("key = %q", p.Key())
		}
	})
}
