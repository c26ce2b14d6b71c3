// Package procwatch gates mirroring on the lighting software being alive.
//
// The monitor polls the OS process table at a fixed interval and publishes
// the result as a single boolean. A failed scan is never treated as "process
// exited": a monitoring hiccup must not suspend mirroring, so the previous
// value stands until a scan succeeds.
package procwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// DefaultInterval is how often the process table is scanned
const DefaultInterval = 5 * time.Second

// Prober reports whether a process with the given name is running
type Prober func(name string) (bool, error)

// Monitor owns the liveness gate for a single named process
type Monitor struct {
	name     string
	interval time.Duration
	probe    Prober
	log      *zap.Logger

	mu   sync.Mutex
	open bool
}

// New creates a Monitor for the given process name. The gate starts closed
// and settles on the first successful scan.
func New(name string, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		name:     name,
		interval: interval,
		probe:    Running,
		log:      log,
	}
}

// Open reports the last known liveness of the watched process
func (m *Monitor) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Run polls until ctx is cancelled. Blocking; run it in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Initial scan so the gate settles before the first tick.
	m.poll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	running, err := m.probe(m.name)
	if err != nil {
		m.log.Warn("process scan failed, keeping previous gate value",
			zap.String("process", m.name),
			zap.Error(err))
		return
	}

	m.mu.Lock()
	changed := m.open != running
	m.open = running
	m.mu.Unlock()

	if !changed {
		return
	}
	if running {
		m.log.Info("process running, mirroring enabled",
			zap.String("process", m.name))
	} else {
		m.log.Info("process not running, mirroring suspended",
			zap.String("process", m.name))
	}
}

// Running scans the OS process table for an exact name match. An empty scan
// result is reported as an error: a machine always runs some processes, so
// an empty table means the enumeration itself failed.
func Running(name string) (bool, error) {
	procs, err := process.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	if len(procs) == 0 {
		return false, fmt.Errorf("process table came back empty")
	}

	for _, p := range procs {
		n, err := p.Name()
		if err != nil {
			// Process may have exited mid-scan.
			continue
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
