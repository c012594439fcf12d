package logic

// ReportSlots is how many history slots external reporting surfaces.
const ReportSlots = 10

// Options configure a Monitor. Zero values select the defaults observed on
// the primary controller firmware.
type Options struct {
	DebounceWindow    Ticks // ms a raw level must hold before acceptance
	HistorySlots      int   // even, at least MinHistorySlots
	ObstructionPulses int   // short-pulse count decoded as an obstruction
	Disabled          bool  // no pin configured; the monitor is inert
}

// Monitor owns the decoder pipeline for one status line: debouncer, pulse
// history and both classifiers. It is strictly single-writer; hosts that
// share its output across goroutines do so through snapshot copies.
type Monitor struct {
	enabled  bool
	debounce *Debouncer
	history  *History
	gates    GateClassifier
	warnings *WarningClassifier

	primed   bool
	lastSeen Ticks
	live     Ticks // duration-so-far of the current accepted run

	gate    GateState
	warning WarningState
	changed bool
	counts  Counts
}

// Snapshot is a point-in-time copy of the decoded state, safe to hand to
// another goroutine.
type Snapshot struct {
	Enabled bool
	Gate    GateState
	Warning WarningState
	Changed bool
	Timings []Ticks
}

// NewMonitor creates a monitor. A disabled monitor accepts all calls but
// never updates history or state.
func NewMonitor(opts Options) *Monitor {
	if opts.DebounceWindow == 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	return &Monitor{
		enabled:  !opts.Disabled,
		debounce: NewDebouncer(opts.DebounceWindow),
		history:  NewHistory(opts.HistorySlots),
		warnings: NewWarningClassifier(opts.ObstructionPulses),
	}
}

// Observe feeds one raw level observation, from either delivery model: every
// poll sample, or every hardware edge.
func (m *Monitor) Observe(raw Level, now Ticks) {
	if !m.enabled {
		return
	}
	if !m.primed {
		m.primed = true
		m.lastSeen = now
		m.debounce.Observe(raw, now)
		m.history.Record(m.debounce.Level(), 0)
		return
	}
	prev := m.debounce.Level()
	level, transitioned := m.debounce.Observe(raw, now)
	m.advance(prev, level, transitioned, now)
}

// Tick advances time without a fresh sample: it re-evaluates a pending edge
// and refreshes the live slot, which is what lets a steady hold eventually
// classify as Open or Closed.
func (m *Monitor) Tick(now Ticks) {
	if !m.enabled || !m.primed {
		return
	}
	prev := m.debounce.Level()
	level, transitioned := m.debounce.Reevaluate(now)
	m.advance(prev, level, transitioned, now)
}

func (m *Monitor) advance(prev, level Level, transitioned bool, now Ticks) {
	delta := Elapsed(m.lastSeen, now)
	m.lastSeen = now
	m.live = satAdd(m.live, delta)
	if transitioned {
		m.counts.Transitions++
		m.history.Record(prev, m.live)
		if level == High {
			// Rising edge closes a full Low-then-High frame.
			m.history.Rotate()
		}
		m.live = 0
	}
	m.history.Record(level, m.live)
	m.classify(level)
}

func (m *Monitor) classify(level Level) {
	if g := m.gates.Classify(m.history, level); g != m.gate {
		// Degrading into Unknown is internal evidence loss, not a
		// reportable change.
		if g != GateUnknown {
			m.changed = true
			m.counts.GateChanges++
		}
		m.gate = g
	}
	if w := m.warnings.Decode(m.history); w != m.warning {
		m.changed = true
		m.counts.WarningChanges++
		m.warning = w
	}
}

// Snapshot returns the current decoded state. A disabled monitor reports
// Unknown/None with an all-zero timing window.
func (m *Monitor) Snapshot() Snapshot {
	if !m.enabled {
		return Snapshot{Timings: make([]Ticks, ReportSlots)}
	}
	return Snapshot{
		Enabled: true,
		Gate:    m.gate,
		Warning: m.warning,
		Changed: m.changed,
		Timings: m.history.Timings(ReportSlots),
	}
}

// ConsumeChanged reports whether externally visible state changed since the
// last call, clearing the flag.
func (m *Monitor) ConsumeChanged() bool {
	c := m.changed
	m.changed = false
	return c
}

// Gate returns the sticky gate state.
func (m *Monitor) Gate() GateState {
	return m.gate
}

// Warning returns the sticky warning state.
func (m *Monitor) Warning() WarningState {
	return m.warning
}

// Counts returns decoder activity counters.
func (m *Monitor) Counts() Counts {
	return m.counts
}

// Level returns the current accepted (debounced) level.
func (m *Monitor) Level() Level {
	return m.debounce.Level()
}

// History exposes the pulse history for tests and rendering. Callers must
// not retain it across monitor updates.
func (m *Monitor) History() *History {
	return m.history
}
