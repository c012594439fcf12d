package logic

// DefaultObstructionPulses is the short-pulse count the primary observed
// firmware blinks for an obstruction. The alternate firmware revision blinks
// 7, so the count is configuration, not a constant of the protocol.
const DefaultObstructionPulses = 9

// Warning blink counts shared by both observed firmware revisions.
const (
	courtesyLightPulses = 1
	mainsFailurePulses  = 3
	batteryLowPulses    = 5
)

// WarningClassifier decodes the framed blink protocol: one framing hold
// followed by a counted run of short pulses. Sticky like GateClassifier,
// except that a window with no framing pulse at all resets it to None.
type WarningClassifier struct {
	obstruction int
	last        WarningState
}

// NewWarningClassifier creates a classifier mapping the given short-pulse
// count to an obstruction. Zero or negative selects the default.
func NewWarningClassifier(obstructionPulses int) *WarningClassifier {
	if obstructionPulses <= 0 {
		obstructionPulses = DefaultObstructionPulses
	}
	return &WarningClassifier{obstruction: obstructionPulses}
}

// HasWarning reports whether the history holds a classifiable framing pulse.
func (c *WarningClassifier) HasWarning(h *History) bool {
	return hasFraming(h)
}

// Decode scans the completed window for a framing pulse and counts the short
// pulses behind it. Walking most-recent-first anchors the count on the
// newest framing pulse when two share the window; an older framing pulse
// terminates the count because it exceeds the short-pulse ceiling. A count
// with no assigned code keeps the sticky value.
func (c *WarningClassifier) Decode(h *History) WarningState {
	if !hasFraming(h) {
		c.last = WarningNone
		return c.last
	}
	framed := false
	count := 0
	for i := 2; i < h.Len(); i++ {
		d := h.At(i)
		if !framed {
			if d >= framingLow && d < framingHigh {
				framed = true
			}
			continue
		}
		if d == 0 || d >= slowHigh {
			break
		}
		count++
	}
	switch count {
	case courtesyLightPulses:
		c.last = WarningCourtesyLight
	case mainsFailurePulses:
		c.last = WarningMainsFailure
	case batteryLowPulses:
		c.last = WarningBatteryLow
	case c.obstruction:
		c.last = WarningObstruction
	}
	return c.last
}

// Last returns the most recently decoded warning.
func (c *WarningClassifier) Last() WarningState {
	return c.last
}
