package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mbezuidenhout/tasmota-gate/internal/gpio"
	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
	"github.com/mbezuidenhout/tasmota-gate/internal/mqtt"
)

// pollLoop simulates the daemon's polling loop: read a scripted sample,
// advance the decoder, and publish whenever the decoded state changes.
func pollLoop(t *testing.T, samples []logic.Level, stepMs int) (*mqtt.FakePublisher, *logic.Monitor) {
	t.Helper()

	reader := gpio.NewFakeReader(samples)
	publisher := mqtt.NewFakePublisher()
	mon := logic.NewMonitor(logic.Options{})
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := range samples {
		level, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: gpio read error: %v", i, err)
		}

		mon.Observe(level, logic.Ticks(i*stepMs))

		if mon.ConsumeChanged() {
			snap := mon.Snapshot()
			timings := make([]uint32, len(snap.Timings))
			for j, d := range snap.Timings {
				timings[j] = uint32(d)
			}
			event := mqtt.Event{
				Timestamp: startTime.Add(time.Duration(i*stepMs) * time.Millisecond),
				Status:    snap.Gate.String(),
				Warning:   snap.Warning.String(),
				Timings:   timings,
			}
			if err := publisher.Publish(event); err != nil {
				t.Fatalf("sample %d: publish error: %v", i, err)
			}
		}
	}

	return publisher, mon
}

// squareWave builds a level sequence toggling every halfPeriod samples.
func squareWave(total, halfPeriod int, first logic.Level) []logic.Level {
	samples := make([]logic.Level, total)
	level := first
	for i := range samples {
		if i > 0 && i%halfPeriod == 0 {
			if level == logic.Low {
				level = logic.High
			} else {
				level = logic.Low
			}
		}
		samples[i] = level
	}
	return samples
}

// steady builds a constant level sequence.
func steady(total int, level logic.Level) []logic.Level {
	samples := make([]logic.Level, total)
	for i := range samples {
		samples[i] = level
	}
	return samples
}

// TestIntegrationSteadyClosedThenOpen verifies the full flow for a gate that
// sits closed and is then left open: exactly one event per state change.
func TestIntegrationSteadyClosedThenOpen(t *testing.T) {
	// 500 ms of steady low, then steady high. 50 ms polls.
	samples := append(steady(10, logic.Low), steady(30, logic.High)...)

	publisher, mon := pollLoop(t, samples, 50)

	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Status != "Closed" {
		t.Errorf("event 0: expected Closed, got %s", publisher.Events[0].Status)
	}
	if publisher.Events[1].Status != "Open" {
		t.Errorf("event 1: expected Open, got %s", publisher.Events[1].Status)
	}
	if got := mon.Gate(); got != logic.GateOpen {
		t.Errorf("final gate state: expected Open, got %s", got)
	}
}

// TestIntegrationSlowPulseOpening verifies a 300 ms square wave decodes as
// Opening through the polling loop.
func TestIntegrationSlowPulseOpening(t *testing.T) {
	publisher, mon := pollLoop(t, squareWave(60, 6, logic.Low), 50)

	if len(publisher.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Status != "Opening" {
		t.Errorf("expected Opening, got %s", publisher.Events[0].Status)
	}
	if publisher.Events[0].Warning != "None" {
		t.Errorf("expected warning None, got %s", publisher.Events[0].Warning)
	}
	if got := mon.Gate(); got != logic.GateOpening {
		t.Errorf("final gate state: expected Opening, got %s", got)
	}
}

// TestIntegrationFastPulseClosing verifies a 150 ms square wave decodes as
// Closing through the polling loop.
func TestIntegrationFastPulseClosing(t *testing.T) {
	publisher, mon := pollLoop(t, squareWave(60, 3, logic.Low), 50)

	if len(publisher.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Status != "Closing" {
		t.Errorf("expected Closing, got %s", publisher.Events[0].Status)
	}
	if got := mon.Gate(); got != logic.GateClosing {
		t.Errorf("final gate state: expected Closing, got %s", got)
	}
}

// TestIntegrationCourtesyLightWarning feeds the single-blink warning frame
// through the polling loop: a 1275 ms low hold framing each 150 ms blink.
// The gate reads Closed from the long holds and the warning decodes once the
// second frame is complete.
func TestIntegrationCourtesyLightWarning(t *testing.T) {
	// 25 ms polls so the 1275 ms hold divides evenly: 51 low samples per
	// hold, 6 high samples per blink.
	var samples []logic.Level
	for period := 0; period < 3; period++ {
		samples = append(samples, steady(51, logic.Low)...)
		samples = append(samples, steady(6, logic.High)...)
	}

	publisher, mon := pollLoop(t, samples, 25)

	if len(publisher.Events) == 0 {
		t.Fatal("expected events, got none")
	}
	if publisher.Events[0].Status != "Closed" {
		t.Errorf("event 0: expected Closed, got %s", publisher.Events[0].Status)
	}
	last := publisher.Events[len(publisher.Events)-1]
	if last.Warning != "Courtesy light on" {
		t.Errorf("last event: expected warning 'Courtesy light on', got %q", last.Warning)
	}
	if got := mon.Warning(); got != logic.WarningCourtesyLight {
		t.Errorf("final warning state: expected CourtesyLight, got %s", got)
	}
}

// TestIntegrationNoEventsWhileUnknown verifies nothing is published before
// the decoder settles on a state.
func TestIntegrationNoEventsWhileUnknown(t *testing.T) {
	// 300 ms of steady low is not yet long enough to classify.
	publisher, mon := pollLoop(t, steady(6, logic.Low), 50)

	if len(publisher.Events) != 0 {
		t.Errorf("expected no events while Unknown, got %d", len(publisher.Events))
	}
	if got := mon.Gate(); got != logic.GateUnknown {
		t.Errorf("expected Unknown, got %s", got)
	}
}

// TestIntegrationPayloadFormat verifies the exact JSON envelope.
func TestIntegrationPayloadFormat(t *testing.T) {
	event := mqtt.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Status:    "Opening",
		Warning:   "None",
		Timings:   []uint32{310, 290, 300, 305, 0, 0, 0, 0, 0, 0},
	}

	publisher := mqtt.NewFakePublisher()
	publisher.Publish(event)

	expected := `{"Gate":{"Status":"Opening","Warning":"None","Timings":[310,290,300,305,0,0,0,0,0,0]}}`
	if string(publisher.Payloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(publisher.Payloads[0]), expected)
	}
}

// TestIntegrationPayloadsParse verifies every published payload carries the
// envelope with ten timing slots.
func TestIntegrationPayloadsParse(t *testing.T) {
	samples := append(steady(10, logic.Low), squareWave(60, 6, logic.Low)...)
	publisher, _ := pollLoop(t, samples, 50)

	if len(publisher.Payloads) == 0 {
		t.Fatal("expected payloads")
	}
	for i, payload := range publisher.Payloads {
		var parsed mqtt.Payload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Errorf("payload %d: invalid JSON: %v", i, err)
			continue
		}
		if parsed.Gate.Status == "" {
			t.Errorf("payload %d: missing status", i)
		}
		if len(parsed.Gate.Timings) != logic.ReportSlots {
			t.Errorf("payload %d: expected %d timings, got %d", i, logic.ReportSlots, len(parsed.Gate.Timings))
		}
	}
}

// TestIntegrationPublishFailureDoesNotCrash verifies publish errors are
// survivable: the decoder keeps advancing.
func TestIntegrationPublishFailureDoesNotCrash(t *testing.T) {
	publisher := mqtt.NewFakePublisher()
	publisher.PublishError = errors.New("broker disconnected")
	mon := logic.NewMonitor(logic.Options{})

	for i, level := range steady(12, logic.Low) {
		mon.Observe(level, logic.Ticks(i*50))
		if mon.ConsumeChanged() {
			snap := mon.Snapshot()
			err := publisher.Publish(mqtt.Event{Status: snap.Gate.String(), Warning: snap.Warning.String()})
			if err == nil {
				t.Error("expected publish error")
			}
		}
	}

	if got := mon.Gate(); got != logic.GateClosed {
		t.Errorf("decoder should still reach Closed, got %s", got)
	}
	if len(publisher.Events) != 0 {
		t.Errorf("expected no recorded events on error, got %d", len(publisher.Events))
	}
}

// TestIntegrationShutdownEvent verifies the retained shutdown system event.
func TestIntegrationShutdownEvent(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 15, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
		Retained:  true,
	}
	if err := publisher.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T15:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(publisher.SystemPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(publisher.SystemPayloads[0]), expected)
	}
}

// TestIntegrationDisabledSensor verifies a disabled decoder publishes
// nothing and reports Unknown with zeroed timings.
func TestIntegrationDisabledSensor(t *testing.T) {
	mon := logic.NewMonitor(logic.Options{Disabled: true})
	publisher := mqtt.NewFakePublisher()

	for i, level := range squareWave(40, 3, logic.Low) {
		mon.Observe(level, logic.Ticks(i*50))
		if mon.ConsumeChanged() {
			publisher.Publish(mqtt.Event{Status: mon.Gate().String()})
		}
	}

	if len(publisher.Events) != 0 {
		t.Errorf("expected no events from disabled sensor, got %d", len(publisher.Events))
	}
	snap := mon.Snapshot()
	if snap.Gate != logic.GateUnknown {
		t.Errorf("expected Unknown, got %s", snap.Gate)
	}
	if len(snap.Timings) != logic.ReportSlots {
		t.Errorf("expected %d timing slots, got %d", logic.ReportSlots, len(snap.Timings))
	}
	for i, d := range snap.Timings {
		if d != 0 {
			t.Errorf("timing %d: expected 0, got %d", i, d)
		}
	}
}
