package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Mode          string       `json:"mode"`
	LastEvent     string       `json:"last_event,omitempty"`
	LastEventTime string       `json:"last_event_time,omitempty"`
	LastPhrase    string       `json:"last_phrase,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Fresh   int `json:"fresh"`
	Dash    int `json:"dash"`
	Failed  int `json:"announce_failed"`
	Expired int `json:"expired"`
	Ignored int `json:"ignored"`
	Busy    int `json:"busy"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs           int64  `json:"poll_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	FreshCountdownS  int64  `json:"fresh_countdown_seconds"`
	DashDelaySeconds int64  `json:"dash_delay_seconds"`
	Channel          string `json:"channel,omitempty"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}

	inner := StatusInner{
		Mode:          mode,
		LastEvent:     string(snap.LastEvent),
		LastPhrase:    snap.LastPhrase,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Fresh:   snap.Counts.Fresh,
			Dash:    snap.Counts.Dash,
			Failed:  snap.Counts.Failed,
			Expired: snap.Counts.Expired,
			Ignored: snap.Counts.Ignored,
			Busy:    snap.Counts.Busy,
		},
		Config: ConfigJSON{
			PollMs:           snap.Config.PollMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			FreshCountdownS:  int64(snap.Config.FreshCountdown.Seconds()),
			DashDelaySeconds: int64(snap.Config.DashDelay.Seconds()),
			Channel:          snap.Config.Channel,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}
	if !snap.LastEventTime.IsZero() {
		inner.LastEventTime = snap.LastEventTime.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
