package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dripbot/internal/history"
	"github.com/sweeney/dripbot/internal/logic"
	"github.com/sweeney/dripbot/internal/status"
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
	"modeOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"modeClass": func(m logic.Mode) string {
		switch m {
		case logic.ModeFreshActive:
			return "fresh"
		case logic.ModeDashPending:
			return "dash"
		}
		return "idle"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>DripBot</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.fresh { color: #8b4513; font-weight: bold; }
.dash { color: #c8a000; font-weight: bold; }
.idle { color: #888; }
.failed { color: red; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DripBot</h1>

<h2>Pot</h2>
<table>
<tr><th>Mode</th><td id="mode" class="{{modeClass .Mode}}">{{modeOrUnknown (printf "%s" .Mode)}}</td></tr>
{{if .LastEvent}}<tr><th>Last event</th><td>{{.LastEvent}} at {{.LastEventTime.UTC.Format "15:04:05Z"}}</td></tr>{{end}}
{{if .LastPhrase}}<tr><th>Last phrase</th><td>{{.LastPhrase}}</td></tr>{{end}}
{{if .LastError}}<tr><th>Last error</th><td class="failed">{{.LastError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Channel</th><td>{{.Config.Channel}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Fresh</th><td>{{.Counts.Fresh}}</td></tr>
<tr><th>Dash</th><td>{{.Counts.Dash}}</td></tr>
<tr><th>Announce failed</th><td>{{.Counts.Failed}}</td></tr>
<tr><th>Expired</th><td>{{.Counts.Expired}}</td></tr>
<tr><th>Ignored</th><td>{{.Counts.Ignored}}</td></tr>
<tr><th>Busy</th><td>{{.Counts.Busy}}</td></tr>
</table>

{{if .Recent}}<h2>Recent</h2>
<table>
{{range .Recent}}<tr><th>{{.Time.UTC.Format "01-02 15:04"}}</th><td{{if not .Sent}} class="failed"{{end}}>{{.Phrase}}</td></tr>
{{end}}</table>
{{end}}
<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Fresh countdown</th><td>{{.Config.FreshCountdown}}</td></tr>
<tr><th>Dash delay</th><td>{{.Config.DashDelay}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/history.json">History</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, recent []history.Entry) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Recent []history.Entry
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Recent:   recent,
	}
	return indexTmpl.Execute(w, data)
}
