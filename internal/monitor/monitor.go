// Package monitor drives the periodic health evaluation loop.
package monitor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arjunvk16/pi-monitor/internal/engine"
	"github.com/arjunvk16/pi-monitor/internal/notify"
	"github.com/arjunvk16/pi-monitor/internal/probe"
)

// Loop evaluates every probe once per poll interval, hands failures to the
// remediation engine, and maintains the liveness heartbeat. All work within a
// cycle is sequential; at most one remediation attempt is in flight at a
// time.
type Loop struct {
	mu sync.Mutex

	engine        *engine.Engine
	notifier      notify.Notifier
	probes        []probe.Probe
	interval      time.Duration
	heartbeatFile string
	instanceID    string

	// lastHealthy tracks per-probe state so recovery is announced once on
	// the error-to-ok transition.
	lastHealthy map[string]bool

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Deps holds loop dependencies.
type Deps struct {
	Engine        *engine.Engine
	Notifier      notify.Notifier
	Probes        []probe.Probe
	Interval      time.Duration
	HeartbeatFile string
}

// NewLoop creates the monitoring loop.
func NewLoop(deps *Deps) (*Loop, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if len(deps.Probes) == 0 {
		return nil, fmt.Errorf("at least one probe is required")
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	healthy := make(map[string]bool, len(deps.Probes))
	for _, p := range deps.Probes {
		healthy[p.Key()] = true
	}

	return &Loop{
		engine:        deps.Engine,
		notifier:      deps.Notifier,
		probes:        deps.Probes,
		interval:      interval,
		heartbeatFile: deps.HeartbeatFile,
		instanceID:    uuid.New().String()[:8],
		lastHealthy:   healthy,
	}, nil
}

// InstanceID returns this process's monitor instance identifier.
func (l *Loop) InstanceID() string {
	return l.instanceID
}

// Start begins the polling loop. It runs the first cycle immediately.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("monitor loop already running")
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.running = true

	l.wg.Add(1)
	go l.run()

	fmt.Printf("Monitor: started (instance=%s, interval=%v, probes=%d)\n",
		l.instanceID, l.interval, len(l.probes))
	return nil
}

// Stop cancels the loop and waits for the current cycle's goroutine to
// return. In-flight blocking calls are abandoned via context cancellation;
// there is no graceful drain.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	fmt.Println("Monitor: stopping...")
	l.cancel()
	l.running = false
	l.wg.Wait()
	fmt.Println("Monitor: stopped")
}

func (l *Loop) run() {
	defer l.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-timer.C:
			l.safeCycle()
			timer.Reset(l.interval)
		}
	}
}

// safeCycle runs one cycle and absorbs anything it throws. A transient error
// must never terminate the daemon; the loop continues on the next interval.
func (l *Loop) safeCycle() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Monitor: cycle panic recovered: %v\n", r)
		}
	}()
	l.cycle(l.ctx)
}

// cycle writes the heartbeat, then evaluates every probe in order.
func (l *Loop) cycle(ctx context.Context) {
	l.writeHeartbeat()

	for _, p := range l.probes {
		if ctx.Err() != nil {
			return
		}

		fmt.Printf("[%s] [TASK] Checking %s...\n", time.Now().Format("15:04:05"), p.Name())
		healthy, detail := p.Check(ctx)
		key := p.Key()

		if healthy {
			if !l.lastHealthy[key] {
				l.lastHealthy[key] = true
				l.notifier.Send(ctx, fmt.Sprintf("✅ %s is back online.", p.Name()))
			}
			continue
		}

		l.lastHealthy[key] = false
		outcome := l.engine.Troubleshoot(ctx, engine.ProblemReport{
			Key:         key,
			Description: detail,
		})
		if outcome.IsFixed() {
			l.lastHealthy[key] = true
		}
		fmt.Printf("[%s] [TASK] %s remediation outcome: %s\n",
			time.Now().Format("15:04:05"), p.Name(), outcome)
	}
}

// writeHeartbeat overwrites the liveness file with the current timestamp. An
// external checker treats a stale file as a stuck process.
func (l *Loop) writeHeartbeat() {
	if l.heartbeatFile == "" {
		return
	}
	content := fmt.Sprintf("%d %s\n", time.Now().Unix(), l.instanceID)
	if err := os.WriteFile(l.heartbeatFile, []byte(content), 0644); err != nil {
		fmt.Printf("Monitor: heartbeat write failed: %v\n", err)
	}
}
