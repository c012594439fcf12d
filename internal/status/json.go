package status

import (
	"encoding/json"
	"time"

	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

// GateJSON is the exact reporting envelope for the snapshot query. Keys and
// labels are case-sensitive; Timings always carries ten slots.
type GateJSON struct {
	Gate GateInner `json:"Gate"`
}

// GateInner contains the gate details.
type GateInner struct {
	Status  string   `json:"Status"`
	Warning string   `json:"Warning"`
	Timings []uint32 `json:"Timings"`
}

// buildGate renders the snapshot into the reporting envelope.
func buildGate(snap Snapshot) GateInner {
	timings := make([]uint32, logic.ReportSlots)
	for i := 0; i < len(timings) && i < len(snap.Timings); i++ {
		timings[i] = uint32(snap.Timings[i])
	}
	return GateInner{
		Status:  snap.Gate.String(),
		Warning: snap.Warning.String(),
		Timings: timings,
	}
}

// FormatGateJSON returns the gate snapshot envelope for the web endpoint.
func FormatGateJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(GateJSON{Gate: buildGate(snap)}, "", "  ")
	return data
}

// StatusJSON is the wider envelope carried by MQTT system events.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains daemon status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Gate          GateInner  `json:"gate"`
	Enabled       bool       `json:"enabled"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of decoder activity counters.
type CountsJSON struct {
	Transitions    uint64 `json:"transitions"`
	GateChanges    uint64 `json:"gate_changes"`
	WarningChanges uint64 `json:"warning_changes"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs            int64  `json:"poll_ms"`
	DebounceMs        int64  `json:"debounce_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	HistorySlots      int    `json:"history_slots"`
	ObstructionPulses int    `json:"obstruction_pulses"`
	Broker            string `json:"broker"`
	HTTPAddr          string `json:"http_addr"`
	EdgeDriven        bool   `json:"edge_driven"`
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := StatusInner{
		Event:         event,
		Reason:        reason,
		Gate:          buildGate(snap),
		Enabled:       snap.Enabled,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Transitions:    snap.Counts.Transitions,
			GateChanges:    snap.Counts.GateChanges,
			WarningChanges: snap.Counts.WarningChanges,
		},
		Config: ConfigJSON{
			PollMs:            snap.Config.PollMs,
			DebounceMs:        snap.Config.DebounceMs,
			HeartbeatMs:       snap.Config.HeartbeatMs,
			HistorySlots:      snap.Config.HistorySlots,
			ObstructionPulses: snap.Config.ObstructionPulses,
			Broker:            snap.Config.Broker,
			HTTPAddr:          snap.Config.HTTPAddr,
			EdgeDriven:        snap.Config.EdgeDriven,
		},
	}
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
