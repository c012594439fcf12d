// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for gate state-change events.
const Topic = "home/gate/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/gate/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gate state-change event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a gate state change to be published.
type Event struct {
	Timestamp time.Time
	Status    string   // gate state label
	Warning   string   // warning label
	Timings   []uint32 // ten most recent history slots, ms
}

// SystemEvent represents a system lifecycle event (startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // pre-formatted status snapshot; returned as-is when set
	Retained   bool   // whether the broker should retain the message
}

// Payload is the published message structure. The envelope matches the gate
// snapshot surface consumed by dashboards: keys are case-sensitive and
// Timings always carries ten slots.
type Payload struct {
	Gate GatePayload `json:"Gate"`
}

// GatePayload contains the gate event details.
type GatePayload struct {
	Status  string   `json:"Status"`
	Warning string   `json:"Warning"`
	Timings []uint32 `json:"Timings"`
}

// FormatPayload creates the JSON payload for a gate event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Gate: GatePayload{
			Status:  event.Status,
			Warning: event.Warning,
			Timings: event.Timings,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the payload for simple system events that don't carry a
// full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
