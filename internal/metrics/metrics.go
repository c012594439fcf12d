// Package metrics registers Prometheus instrumentation for the gate-sensor
// daemon. Init must be called once before the recording helpers; the
// helpers are no-ops otherwise so unit tests need no registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

const metricPrefix = "gate_sensor_"

var (
	registerOnce sync.Once

	transitionsTotal prometheus.Counter
	gateStateChanges *prometheus.CounterVec
	warningsDecoded  *prometheus.CounterVec
	gpioReadErrors   prometheus.Counter
	publishFailures  prometheus.Counter
	gateStateCode    prometheus.Gauge
)

// Init registers all daemon metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		transitionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "transitions_total",
			Help: "Accepted debounced level transitions on the status line",
		})
		gateStateChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "state_changes_total",
			Help: "Gate state changes by resulting state",
		}, []string{"state"})
		warningsDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "warnings_total",
			Help: "Warning codes decoded from the blink protocol",
		}, []string{"warning"})
		gpioReadErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "gpio_read_errors_total",
			Help: "Failed reads of the status line",
		})
		publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "publish_failures_total",
			Help: "MQTT publish attempts that returned an error",
		})
		gateStateCode = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "gate_state",
			Help: "Current gate state code (0 Unknown, 1 Closed, 2 Open, 3 Opening, 4 Closing)",
		})

		prometheus.MustRegister(
			transitionsTotal,
			gateStateChanges,
			warningsDecoded,
			gpioReadErrors,
			publishFailures,
			gateStateCode,
		)
	})
}

// AddTransitions counts n accepted level transitions. The run loop calls
// this with the delta of the decoder's transition counter.
func AddTransitions(n uint64) {
	if transitionsTotal != nil && n > 0 {
		transitionsTotal.Add(float64(n))
	}
}

// RecordGateState counts a gate state change and updates the state gauge.
func RecordGateState(s logic.GateState) {
	if gateStateChanges != nil {
		gateStateChanges.WithLabelValues(s.String()).Inc()
		gateStateCode.Set(float64(s))
	}
}

// RecordWarning counts a decoded warning change.
func RecordWarning(w logic.WarningState) {
	if warningsDecoded != nil {
		warningsDecoded.WithLabelValues(w.String()).Inc()
	}
}

// RecordGPIOError counts a failed status-line read.
func RecordGPIOError() {
	if gpioReadErrors != nil {
		gpioReadErrors.Inc()
	}
}

// RecordPublishFailure counts a failed MQTT publish.
func RecordPublishFailure() {
	if publishFailures != nil {
		publishFailures.Inc()
	}
}
