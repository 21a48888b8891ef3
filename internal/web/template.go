package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/dht22d/internal/status"
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
	"statusOrDash": func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	},
	"localtime": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"temp": func(v float64) string { return fmt.Sprintf("%.1f °C", v) },
	"hum":  func(v float64) string { return fmt.Sprintf("%.1f %%", v) },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>DHT22 Sensors</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.ready { color: green; font-weight: bold; }
.error { color: red; }
.ok { color: green; }
.fail { color: #b60; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DHT22 Sensors</h1>

<h2>Channels</h2>
<table>
<tr><th>#</th><th>Pin</th><th>State</th><th>Last read</th><th>Result</th><th>Temperature</th><th>Humidity</th></tr>
{{range $i, $ch := .Channels}}
<tr>
<td>{{$i}}</td>
<td>{{$ch.Pin}}</td>
<td class="{{if eq $ch.State "ready"}}ready{{else}}error{{end}}">{{$ch.State}}</td>
<td>{{localtime $ch.LastReadAt}}</td>
<td class="{{if eq $ch.LastStatus "Ok"}}ok{{else}}fail{{end}}">{{statusOrDash $ch.LastStatus}}</td>
<td>{{if $ch.HasMeasurement}}{{temp $ch.TemperatureC}}{{else}}—{{end}}</td>
<td>{{if $ch.HasMeasurement}}{{hum $ch.HumidityPct}}{{else}}—{{end}}</td>
</tr>
{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Read Counts</h2>
<table>
<tr><th>Ok</th><td>{{.Counts.OK}}</td></tr>
<tr><th>Checksum errors</th><td>{{.Counts.Checksum}}</td></tr>
<tr><th>Too soon</th><td>{{.Counts.TooSoon}}</td></tr>
<tr><th>Busy</th><td>{{.Counts.Busy}}</td></tr>
<tr><th>I/O errors</th><td>{{.Counts.IOError}}</td></tr>
</table>

<h2>Daemon</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>GPIO chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>Poll interval</th><td>{{.Config.PollMs}} ms</td></tr>
<tr><th>Settle</th><td>{{.Config.SettleMs}} ms</td></tr>
<tr><th>Heartbeat</th><td>{{.Config.HeartbeatMs}} ms</td></tr>
</table>

</body>
</html>
`

// renderHTML writes the status page for the snapshot.
func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("web: render template: %v", err)
	}
}
