//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

// RealReader reads the status line from actual hardware using the Linux
// GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader requests the status line as a pulled-up input for polling.
func NewRealReader(chipName string, pin int) (*RealReader, error) {
	return request(chipName, pin)
}

// NewEdgeReader requests the status line with both-edge events delivered to
// fn, for the edge-driven delivery model. Direct reads keep working.
func NewEdgeReader(chipName string, pin int, fn EdgeFunc) (*RealReader, error) {
	eh := func(evt gpiocdev.LineEvent) {
		// A falling raw edge means the LED just turned on.
		level := logic.Low
		if evt.Type == gpiocdev.LineEventFallingEdge {
			level = logic.High
		}
		fn(level, time.Now())
	}
	return request(chipName, pin, gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(eh))
}

func request(chipName string, pin int, extra ...gpiocdev.LineReqOption) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	// Pull-up matches the open-collector LED output: the line rests high
	// and the controller sinks it low while the LED is lit.
	opts := append([]gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}, extra...)
	line, err := chip.RequestLine(pin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request status pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, line: line}, nil
}

// Read returns the logical level of the status line, inverting the
// active-low raw value.
func (r *RealReader) Read() (logic.Level, error) {
	raw, err := r.line.Value()
	if err != nil {
		return logic.Low, fmt.Errorf("read status pin: %w", err)
	}
	if raw == 0 {
		return logic.High, nil
	}
	return logic.Low, nil
}

// Close releases GPIO resources, reconfiguring the line back to a plain
// input first so a restart always starts from the boot default.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure status pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close status pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
