// Package logic contains the pure pulse-timing decoder for the gate status
// line. This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injected as millisecond ticks.
package logic

// Level is the logical state of the status line.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "High"
	}
	return "Low"
}

// GateState is the inferred motion state of the gate.
type GateState uint8

const (
	GateUnknown GateState = iota
	GateClosed
	GateOpen
	GateOpening
	GateClosing
)

// String returns the reporting label for the state. Labels are part of the
// external JSON surface and are case-sensitive.
func (s GateState) String() string {
	switch s {
	case GateClosed:
		return "Closed"
	case GateOpen:
		return "Open"
	case GateOpening:
		return "Opening"
	case GateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// WarningState is a decoded maintenance-warning blink code.
type WarningState uint8

const (
	WarningNone WarningState = iota
	WarningCourtesyLight
	WarningMainsFailure
	WarningBatteryLow
	WarningObstruction
)

// String returns the reporting label for the warning. The controller manual
// calls an obstruction a collision, and the label follows the manual.
func (w WarningState) String() string {
	switch w {
	case WarningCourtesyLight:
		return "Courtesy light on"
	case WarningMainsFailure:
		return "Mains failure"
	case WarningBatteryLow:
		return "Battery low"
	case WarningObstruction:
		return "Collision"
	default:
		return "None"
	}
}

// Counts tracks decoder activity since startup.
type Counts struct {
	Transitions    uint64 // accepted debounced level transitions
	GateChanges    uint64 // externally visible gate state changes
	WarningChanges uint64 // externally visible warning changes
}
