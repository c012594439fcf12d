package logic

// DefaultDebounceWindow is the minimum hold in milliseconds before a raw
// level change is accepted as real.
const DefaultDebounceWindow Ticks = 50

// Debouncer filters raw level observations, promoting a new level only once
// it has held for the configured window. It serves both delivery models: a
// polling host feeds every sample through Observe; an edge-driven host feeds
// edges through Observe and calls Reevaluate on its scheduled ticks so a
// pending edge can be promoted once the window elapses.
type Debouncer struct {
	window Ticks

	primed   bool
	accepted Level

	hasPending   bool
	pending      Level
	pendingSince Ticks
}

// NewDebouncer creates a debouncer with the given window in milliseconds.
func NewDebouncer(window Ticks) *Debouncer {
	return &Debouncer{window: window}
}

// Observe feeds one raw sample. It returns the accepted level and whether
// this call promoted a new level. The very first sample seeds the accepted
// level without counting as a transition.
func (d *Debouncer) Observe(raw Level, now Ticks) (Level, bool) {
	if !d.primed {
		d.primed = true
		d.accepted = raw
		return d.accepted, false
	}
	if raw == d.accepted {
		// Flipped back inside the window: the excursion never surfaces.
		d.hasPending = false
		return d.accepted, false
	}
	if !d.hasPending || d.pending != raw {
		d.pending = raw
		d.hasPending = true
		d.pendingSince = now
		return d.accepted, false
	}
	return d.promote(now)
}

// Reevaluate promotes a pending level whose window has elapsed without a
// contradicting sample.
func (d *Debouncer) Reevaluate(now Ticks) (Level, bool) {
	if !d.hasPending {
		return d.accepted, false
	}
	return d.promote(now)
}

func (d *Debouncer) promote(now Ticks) (Level, bool) {
	if Elapsed(d.pendingSince, now) < d.window {
		return d.accepted, false
	}
	d.accepted = d.pending
	d.hasPending = false
	return d.accepted, true
}

// Level returns the current accepted level.
func (d *Debouncer) Level() Level {
	return d.accepted
}
