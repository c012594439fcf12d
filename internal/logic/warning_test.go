package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningNoneWithoutFraming(t *testing.T) {
	c := NewWarningClassifier(0)
	h := histWith(50, 0, 300, 300, 300, 300)
	assert.False(t, c.HasWarning(h))
	assert.Equal(t, WarningNone, c.Decode(h))
}

func TestWarningCourtesyLight(t *testing.T) {
	c := NewWarningClassifier(0)
	// Framing pulse followed by exactly one short pulse, then end of data.
	h := histWith(10, 0, 1275, 150)
	assert.Equal(t, WarningCourtesyLight, c.Decode(h))
}

func TestWarningCourtesyLightTerminatedByNextFraming(t *testing.T) {
	c := NewWarningClassifier(0)
	h := histWith(10, 0, 1275, 150, 1275, 150)
	assert.Equal(t, WarningCourtesyLight, c.Decode(h))
}

func TestWarningMainsFailure(t *testing.T) {
	c := NewWarningClassifier(0)
	h := histWith(10, 0, 1275, 150, 150, 150)
	assert.Equal(t, WarningMainsFailure, c.Decode(h))
}

func TestWarningBatteryLow(t *testing.T) {
	c := NewWarningClassifier(0)
	h := histWith(10, 0, 1275, 150, 150, 150, 150, 150)
	assert.Equal(t, WarningBatteryLow, c.Decode(h))
}

func TestWarningObstructionDefaultCount(t *testing.T) {
	c := NewWarningClassifier(0)
	h := histWith(10, 0, 1275, 150, 150, 150, 150, 150, 150, 150, 150, 150)
	assert.Equal(t, WarningObstruction, c.Decode(h))
}

func TestWarningObstructionConfiguredCount(t *testing.T) {
	// The alternate firmware revision blinks seven pulses for an obstruction.
	c := NewWarningClassifier(7)
	h := histWith(10, 0, 1275, 150, 150, 150, 150, 150, 150, 150)
	assert.Equal(t, WarningObstruction, c.Decode(h))

	// Under the default table the same window decodes to nothing and the
	// sticky value survives.
	d := NewWarningClassifier(0)
	d.last = WarningBatteryLow
	assert.Equal(t, WarningBatteryLow, d.Decode(h))
}

func TestWarningAnchorsOnMostRecentFraming(t *testing.T) {
	c := NewWarningClassifier(0)
	// Two framed sequences share the window; the newer one (one short
	// pulse) wins over the older three-pulse run.
	h := histWith(10, 0, 1275, 150, 1275, 150, 150, 150)
	assert.Equal(t, WarningCourtesyLight, c.Decode(h))
}

func TestWarningUnmatchedCountKeepsSticky(t *testing.T) {
	c := NewWarningClassifier(0)
	c.last = WarningMainsFailure

	// Two short pulses map to no code.
	h := histWith(10, 0, 1275, 150, 150)
	assert.Equal(t, WarningMainsFailure, c.Decode(h))
}

func TestWarningResetsToNoneWhenFramingGone(t *testing.T) {
	c := NewWarningClassifier(0)
	h := histWith(10, 0, 1275, 150)
	assert.Equal(t, WarningCourtesyLight, c.Decode(h))

	// The framing pulse has rotated out: sticky state resets explicitly.
	plain := histWith(10, 0, 300, 300, 300, 300)
	assert.Equal(t, WarningNone, c.Decode(plain))
}

func TestWarningLiveHoldNotYetClassifiable(t *testing.T) {
	c := NewWarningClassifier(0)
	c.last = WarningBatteryLow

	// A pulse still accumulating past the framing band masks the window.
	h := histWith(1400, 0, 1275, 150)
	assert.False(t, c.HasWarning(h))
	assert.Equal(t, WarningNone, c.Decode(h))
}
