// Command gate-sensor watches a gate controller's status-LED line on GPIO,
// decodes gate motion and warning blink codes from its pulse timing, and
// publishes state changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mbezuidenhout/tasmota-gate/internal/config"
	"github.com/mbezuidenhout/tasmota-gate/internal/gpio"
	"github.com/mbezuidenhout/tasmota-gate/internal/logging"
	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
	"github.com/mbezuidenhout/tasmota-gate/internal/metrics"
	"github.com/mbezuidenhout/tasmota-gate/internal/mqtt"
	"github.com/mbezuidenhout/tasmota-gate/internal/status"
	"github.com/mbezuidenhout/tasmota-gate/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	pin := flag.Int("pin", gpio.DefaultPin, "BCM pin of the status LED input (-1 to disable)")
	chip := flag.String("chip", gpio.DefaultChip, "GPIO character device")
	poll := flag.Duration("poll", 50*time.Millisecond, "GPIO polling interval")
	debounce := flag.Duration("debounce", 50*time.Millisecond, "Debounce window")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	historySlots := flag.Int("history-slots", logic.DefaultHistorySlots, "Pulse history slots (device profile)")
	obstruction := flag.Int("obstruction-pulses", logic.DefaultObstructionPulses, "Obstruction blink count (device profile)")
	edge := flag.Bool("edge", false, "Use GPIO edge events instead of polling")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	printState := flag.Bool("print-state", false, "Print current line level and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Explicitly set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pin":
			cfg.Pin = *pin
		case "chip":
			cfg.Chip = *chip
		case "poll":
			cfg.PollMs = int(poll.Milliseconds())
		case "debounce":
			cfg.DebounceMs = int(debounce.Milliseconds())
		case "broker":
			cfg.Broker = *broker
		case "heartbeat":
			cfg.HeartbeatMs = int(heartbeat.Milliseconds())
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "history-slots":
			cfg.HistorySlots = *historySlots
		case "obstruction-pulses":
			cfg.ObstructionPulses = *obstruction
		case "edge":
			cfg.EdgeDriven = *edge
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel)

	if err := run(cfg, *printState); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

// edgeObs carries one raw edge observation from the GPIO event goroutine to
// the decoder loop.
type edgeObs struct {
	level logic.Level
	at    time.Time
}

func run(cfg config.Config, printState bool) error {
	metrics.Init()

	var (
		reader gpio.Reader
		edges  chan edgeObs
	)
	if !cfg.Disabled() {
		if cfg.EdgeDriven && !printState {
			edges = make(chan edgeObs, 16)
			r, err := gpio.NewEdgeReader(cfg.Chip, cfg.Pin, func(level logic.Level, at time.Time) {
				select {
				case edges <- edgeObs{level: level, at: at}:
				default:
					// Decoder loop is behind; the next tick resamples.
				}
			})
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			reader = r
		} else {
			r, err := gpio.NewRealReader(cfg.Chip, cfg.Pin)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			reader = r
		}
		defer reader.Close()
	}

	if printState {
		if reader == nil {
			fmt.Println("Level: disabled")
			return nil
		}
		level, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("Level: %s\n", level)
		return nil
	}

	monitor := logic.NewMonitor(logic.Options{
		DebounceWindow:    logic.Ticks(cfg.DebounceMs),
		HistorySlots:      cfg.HistorySlots,
		ObstructionPulses: cfg.ObstructionPulses,
		Disabled:          cfg.Disabled(),
	})

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:            int64(cfg.PollMs),
		DebounceMs:        int64(cfg.DebounceMs),
		HeartbeatMs:       int64(cfg.HeartbeatMs),
		HistorySlots:      cfg.HistorySlots,
		ObstructionPulses: cfg.ObstructionPulses,
		Broker:            cfg.Broker,
		HTTPAddr:          cfg.HTTPAddr,
		EdgeDriven:        cfg.EdgeDriven,
	})

	publisher := mqtt.NewRealPublisher(cfg.Broker)
	defer publisher.Close()

	startupEvent := mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	} else {
		log.Info().Msg("published startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	log.Info().
		Int("pin", cfg.Pin).
		Int("poll_ms", cfg.PollMs).
		Int("debounce_ms", cfg.DebounceMs).
		Bool("edge_driven", cfg.EdgeDriven).
		Str("broker", cfg.Broker).
		Msg("started")

	ticker := time.NewTicker(time.Duration(cfg.PollMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	hb := time.Duration(cfg.HeartbeatMs) * time.Millisecond
	return runLoop(reader, publisher, publisher, tracker, monitor, hb, time.Now, ticker.C, edges, sigCh)
}

func runLoop(reader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, monitor *logic.Monitor, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, edges <-chan edgeObs, sig <-chan os.Signal) error {
	start := now()
	lastHeartbeat := start
	var lastCounts logic.Counts

	for {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("failed to publish shutdown event")
			} else {
				log.Info().Msg("published shutdown event")
			}
			return nil

		case e := <-edges:
			monitor.Observe(e.level, logic.TicksAt(start, e.at))
			lastCounts = report(publisher, tracker, monitor, lastCounts, e.at)

		case <-tick:
			t := now()
			ticks := logic.TicksAt(start, t)

			if edges == nil {
				// Polling delivery: sample the line on every tick.
				if reader != nil {
					level, err := reader.Read()
					if err != nil {
						log.Warn().Err(err).Msg("gpio read error")
						metrics.RecordGPIOError()
						continue
					}
					monitor.Observe(level, ticks)
				}
			} else {
				// Edge delivery: the tick promotes pending edges and lets a
				// steady hold classify.
				monitor.Tick(ticks)
			}

			lastCounts = report(publisher, tracker, monitor, lastCounts, t)

			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if heartbeatDue(lastHeartbeat, t, heartbeat) {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warn().Err(err).Msg("heartbeat publish error")
					metrics.RecordPublishFailure()
				}
			}
		}
	}
}

// report refreshes the tracker and publishes a gate event when the decoded
// state changed since the last check. Returns the counter values consumed.
func report(publisher mqtt.Publisher, tracker *status.Tracker, monitor *logic.Monitor, prev logic.Counts, t time.Time) logic.Counts {
	changed := monitor.ConsumeChanged()
	snap := monitor.Snapshot()
	counts := monitor.Counts()
	tracker.Update(snap, counts)
	metrics.AddTransitions(counts.Transitions - prev.Transitions)

	if !changed {
		return counts
	}

	metrics.RecordGateState(snap.Gate)
	metrics.RecordWarning(snap.Warning)
	log.Info().
		Str("gate", snap.Gate.String()).
		Str("warning", snap.Warning.String()).
		Msg("state change")

	event := mqtt.Event{
		Timestamp: t,
		Status:    snap.Gate.String(),
		Warning:   snap.Warning.String(),
		Timings:   timingsU32(snap.Timings),
	}
	if err := publisher.Publish(event); err != nil {
		log.Warn().Err(err).Msg("publish error")
		metrics.RecordPublishFailure()
		// Don't crash on publish failure
	}
	return counts
}

// heartbeatDue reports whether a heartbeat should fire. A non-positive
// interval disables heartbeats.
func heartbeatDue(last, now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	return now.Sub(last) >= interval
}

func timingsU32(timings []logic.Ticks) []uint32 {
	out := make([]uint32, len(timings))
	for i, d := range timings {
		out[i] = uint32(d)
	}
	return out
}
