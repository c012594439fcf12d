// Package gpio reads the gate controller's status-LED line with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

// Reader samples the status line.
type Reader interface {
	// Read returns the logical level of the status line. The raw input is
	// active-low (the LED sinks the line through the optocoupler), so raw 0
	// reads as logic.High.
	Read() (logic.Level, error)

	// Close releases GPIO resources.
	Close() error
}

// EdgeFunc receives raw edge observations from an edge-driven reader. It is
// called from the GPIO event goroutine; implementations must hand off to
// the decoder goroutine rather than touch shared state.
type EdgeFunc func(level logic.Level, at time.Time)

// Defaults for a Raspberry Pi deployment (BCM numbering).
const (
	DefaultPin  = 17
	DefaultChip = "gpiochip0"
)
