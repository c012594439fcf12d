package logic

// Nominal status-LED timings in milliseconds for the observed controller
// family, with the tolerance applied either side of each nominal value.
const (
	PulseFast   Ticks = 150  // half-cycle while the gate is closing
	PulseSlow   Ticks = 300  // half-cycle while the gate is opening
	PulseWait   Ticks = 1275 // framing hold announcing a diagnostic sequence
	PulseMargin Ticks = 64

	// framingReach extends the framing band well below nominal: the hold is
	// cut short when the controller starts the blink run early.
	framingReach Ticks = 280
)

// Tolerance bands, [low, high).
const (
	fastLow     = PulseFast - PulseMargin
	fastHigh    = PulseFast + PulseMargin
	slowLow     = PulseSlow - PulseMargin
	slowHigh    = PulseSlow + PulseMargin // also the steady-level cutoff
	framingLow  = PulseWait - framingReach
	framingHigh = PulseWait + PulseMargin
)

// GateClassifier maps the pulse history to a gate motion state. It is
// sticky: without positive evidence it repeats the last state it emitted, so
// a momentarily ambiguous window never degrades an established reading.
type GateClassifier struct {
	last GateState
}

// Classify inspects the history given the currently live level. A level held
// past the slow-pulse band means the LED stopped blinking and wins over
// everything else: steady Low is a closed gate, steady High an open one.
// Otherwise a toggling window with no framing pulse is matched against the
// two blink cadences.
func (c *GateClassifier) Classify(h *History, live Level) GateState {
	if h.Live(live) >= slowHigh {
		if live == Low {
			c.last = GateClosed
		} else {
			c.last = GateOpen
		}
		return c.last
	}
	if !hasFraming(h) {
		switch mean := meanPulse(h); {
		case mean >= fastLow && mean < fastHigh:
			c.last = GateClosing
		case mean >= slowLow && mean < slowHigh:
			c.last = GateOpening
		}
	}
	return c.last
}

// Last returns the most recently emitted state.
func (c *GateClassifier) Last() GateState {
	return c.last
}

// meanPulse returns the rounded mean half-cycle duration over the most
// recent aligned Low/High pairs, walking from slot 2 and stopping at the
// first pair containing a zero or framing-scale duration (insufficient data
// or a warning pulse, not steady toggling). Fewer than two full qualifying
// pairs is undefined, returned as 0 which matches no tolerance band.
func meanPulse(h *History) Ticks {
	var sum, count Ticks
	for i := 2; i+1 < h.Len(); i += 2 {
		lo, hi := h.At(i), h.At(i+1)
		if lo == 0 || hi == 0 || lo >= framingLow || hi >= framingLow {
			break
		}
		sum += lo + hi
		count += 2
	}
	if count < 4 {
		return 0
	}
	return (sum + count/2) / count
}

// hasFraming reports whether the completed window contains a framing pulse.
// A live slot already past the framing band is a hold still accumulating and
// not yet classifiable, so it masks the window entirely.
func hasFraming(h *History) bool {
	if h.Live(Low) >= framingHigh || h.Live(High) >= framingHigh {
		return false
	}
	for i := 2; i < h.Len(); i++ {
		if d := h.At(i); d >= framingLow && d < framingHigh {
			return true
		}
	}
	return false
}
