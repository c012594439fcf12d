package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/mbezuidenhout/tasmota-gate/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"gateClass": func(s string) string {
		switch s {
		case "Closed":
			return "closed"
		case "Open":
			return "open"
		case "Opening", "Closing":
			return "moving"
		default:
			return "unknown"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Gate Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.closed { color: green; font-weight: bold; }
.open { color: #c60; font-weight: bold; }
.moving { color: #06c; font-weight: bold; }
.unknown { color: orange; }
.warning { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.timings { font-size: 0.9em; color: #555; }
</style>
</head>
<body>
<h1>Gate Sensor</h1>

<h2>State</h2>
<table>
<tr><th>Gate</th><td class="{{gateClass .Gate.String}}">{{.Gate}}</td></tr>
<tr><th>Warning</th><td{{if ne .Warning.String "None"}} class="warning"{{end}}>{{.Warning}}</td></tr>
<tr><th>Sensor</th><td>{{if .Enabled}}enabled{{else}}disabled{{end}}</td></tr>
</table>

<h2>Pulse Timings (ms)</h2>
<table>
<tr><td class="timings">{{range .Timings}}{{.}} {{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
<tr><th>Gate changes</th><td>{{.Counts.GateChanges}}</td></tr>
<tr><th>Warning changes</th><td>{{.Counts.WarningChanges}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms{{if .Config.EdgeDriven}} (edge-driven){{end}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>History slots</th><td>{{.Config.HistorySlots}}</td></tr>
<tr><th>Obstruction pulses</th><td>{{.Config.ObstructionPulses}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
