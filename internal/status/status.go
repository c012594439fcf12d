// Package status provides a thread-safe status tracker for the gate-sensor
// daemon. It is read by HTTP handlers and by the MQTT reporting path while
// the decoder loop writes it.
package status

import (
	"sync"
	"time"

	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs            int64
	DebounceMs        int64
	HeartbeatMs       int64
	HistorySlots      int
	ObstructionPulses int
	Broker            string
	HTTPAddr          string
	EdgeDriven        bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Enabled       bool
	Gate          logic.GateState
	Warning       logic.WarningState
	Timings       []logic.Ticks
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the decoder snapshot and counters in. Called from the run
// loop after every monitor advance. The timings slice is stored as-is, so
// callers must pass a fresh copy (logic.Monitor.Snapshot already does).
func (t *Tracker) Update(mon logic.Snapshot, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Enabled = mon.Enabled
	t.snap.Gate = mon.Gate
	t.snap.Warning = mon.Warning
	t.snap.Timings = mon.Timings
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
