package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunvk16/pi-monitor/internal/ai"
	"github.com/arjunvk16/pi-monitor/internal/engine"
	"github.com/arjunvk16/pi-monitor/internal/memory"
	"github.com/arjunvk16/pi-monitor/internal/probe"
)

// scriptedProbe returns its results in order, repeating the last one.
type scriptedProbe struct {
	mu      sync.Mutex
	key     string
	results []bool
	calls   int
}

func (p *scriptedProbe) Name() string { return p.key }
func (p *scriptedProbe) Key() string  { return p.key }

func (p *scriptedProbe) Check(_ context.Context) (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	p.calls++
	if p.results[i] {
		return true, ""
	}
	return false, p.key + " is down."
}

func (p *scriptedProbe) checkCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordingNotifier captures messages for later assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Send(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// unavailableAsker simulates all providers being in cooldown.
type unavailableAsker struct{}

func (unavailableAsker) Ask(_ context.Context, _ string) (*ai.Suggestion, error) {
	return nil, ai.ErrUnavailable
}

// noopExecutor should never run during these tests.
type noopExecutor struct{}

func (noopExecutor) Execute(_ context.Context, _ string) (bool, string) {
	return false, "unexpected execution"
}

func newTestEngine(t *testing.T, notifier *recordingNotifier) *engine.Engine {
	t.Helper()
	mem := memory.Load(filepath.Join(t.TempDir(), "cache.json"))
	eng, err := engine.New(&engine.Deps{
		Memory:   mem,
		Chain:    unavailableAsker{},
		Executor: noopExecutor{},
		Notifier: notifier,
	})
	require.NoError(t, err)
	return eng
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewLoopValidation(t *testing.T) {
	notifier := &recordingNotifier{}
	eng := newTestEngine(t, notifier)
	probes := []probe.Probe{&scriptedProbe{key: "nas_down", results: []bool{true}}}

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing engine", Deps{Notifier: notifier, Probes: probes}},
		{"missing notifier", Deps{Engine: eng, Probes: probes}},
		{"no probes", Deps{Engine: eng, Notifier: notifier}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoop(&tt.deps)
			assert.Error(t, err)
		})
	}

	loop, err := NewLoop(&Deps{Engine: eng, Notifier: notifier, Probes: probes})
	require.NoError(t, err)
	assert.Len(t, loop.InstanceID(), 8)
	assert.Equal(t, 60*time.Second, loop.interval, "interval should default")
}

func TestLoopWritesHeartbeat(t *testing.T) {
	notifier := &recordingNotifier{}
	p := &scriptedProbe{key: "nas_down", results: []bool{true}}
	hbFile := filepath.Join(t.TempDir(), "heartbeat")

	loop, err := NewLoop(&Deps{
		Engine:        newTestEngine(t, notifier),
		Notifier:      notifier,
		Probes:        []probe.Probe{p},
		Interval:      10 * time.Millisecond,
		HeartbeatFile: hbFile,
	})
	require.NoError(t, err)

	before := time.Now().Unix()
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(hbFile)
		return err == nil
	})

	data, err := os.ReadFile(hbFile)
	require.NoError(t, err)
	fields := strings.Fields(string(data))
	require.Len(t, fields, 2)

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)
	assert.Equal(t, loop.InstanceID(), fields[1])
}

func TestLoopAnnouncesRecoveryOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	// Down for one cycle (remediation is unavailable), then healthy forever.
	p := &scriptedProbe{key: "nas_down", results: []bool{false, true}}

	loop, err := NewLoop(&Deps{
		Engine:   newTestEngine(t, notifier),
		Notifier: notifier,
		Probes:   []probe.Probe{p},
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	waitFor(t, 2*time.Second, func() bool { return p.checkCount() >= 4 })
	loop.Stop()

	recoveries := 0
	for _, msg := range notifier.all() {
		if strings.Contains(msg, "back online") {
			recoveries++
		}
	}
	assert.Equal(t, 1, recoveries, "recovery should be announced exactly once: %v", notifier.all())
}

func TestLoopStartIsExclusive(t *testing.T) {
	notifier := &recordingNotifier{}
	p := &scriptedProbe{key: "nas_down", results: []bool{true}}

	loop, err := NewLoop(&Deps{
		Engine:   newTestEngine(t, notifier),
		Notifier: notifier,
		Probes:   []probe.Probe{p},
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, loop.Start(context.Background()))
	assert.Error(t, loop.Start(context.Background()), "second Start should fail")
	loop.Stop()

	// Stop is idempotent.
	loop.Stop()
}
