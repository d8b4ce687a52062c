package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/dripbot/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 20, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 20 {
		t.Errorf("Config.PollMs: got %d, want 20", snap.Config.PollMs)
	}
	if snap.Mode != logic.ModeIdle {
		t.Errorf("Mode: got %q, want IDLE", snap.Mode)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestBrewEventUpdatesSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

	tr.BrewEvent(logic.Event{Timestamp: at, Type: logic.EventFresh, Mode: logic.ModeFreshActive, Phrase: "Frome dolp."})

	snap := tr.Snapshot()
	if snap.Mode != logic.ModeFreshActive {
		t.Errorf("Mode: got %q, want FRESH_ACTIVE", snap.Mode)
	}
	if snap.LastEvent != logic.EventFresh {
		t.Errorf("LastEvent: got %q", snap.LastEvent)
	}
	if !snap.LastEventTime.Equal(at) {
		t.Errorf("LastEventTime: got %v", snap.LastEventTime)
	}
	if snap.LastPhrase != "Frome dolp." {
		t.Errorf("LastPhrase: got %q", snap.LastPhrase)
	}
	if snap.Counts.Fresh != 1 {
		t.Errorf("Counts.Fresh: got %d, want 1", snap.Counts.Fresh)
	}
}

func TestBrewEventCounts(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.BrewEvent(logic.Event{Type: logic.EventDash, Mode: logic.ModeDashPending})
	tr.BrewEvent(logic.Event{Type: logic.EventFresh, Mode: logic.ModeFreshActive})
	tr.BrewEvent(logic.Event{Type: logic.EventExpired, Mode: logic.ModeIdle})
	tr.BrewEvent(logic.Event{Type: logic.EventAnnounceFailed, Mode: logic.ModeFreshActive, Err: errors.New("status 503")})
	tr.RecordAction(logic.ActionIgnored)
	tr.RecordAction(logic.ActionBusy)
	tr.RecordAction(logic.ActionBusy)
	tr.RecordAction(logic.ActionFresh)

	want := Counts{Fresh: 1, Dash: 1, Failed: 1, Expired: 1, Ignored: 1, Busy: 2}
	if got := tr.Snapshot().Counts; got != want {
		t.Errorf("Counts: got %+v, want %+v", got, want)
	}
}

func TestAnnounceFailedSetsAndFreshClearsError(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.BrewEvent(logic.Event{Type: logic.EventAnnounceFailed, Mode: logic.ModeFreshActive, Err: errors.New("status 503")})
	if got := tr.Snapshot().LastError; got != "status 503" {
		t.Errorf("LastError: got %q", got)
	}

	tr.BrewEvent(logic.Event{Type: logic.EventFresh, Mode: logic.ModeFreshActive})
	if got := tr.Snapshot().LastError; got != "" {
		t.Errorf("LastError after fresh: got %q, want empty", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.BrewEvent(logic.Event{Type: logic.EventDash, Mode: logic.ModeDashPending})

	snap1 := tr.Snapshot()

	tr.BrewEvent(logic.Event{Type: logic.EventFresh, Mode: logic.ModeFreshActive})

	if snap1.Mode != logic.ModeDashPending {
		t.Error("snapshot should be a copy; Mode was modified")
	}
	if snap1.Counts.Fresh != 0 {
		t.Error("snapshot should be a copy; Counts were modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Mode:          logic.ModeFreshActive,
		LastEvent:     logic.EventFresh,
		LastEventTime: start.Add(10 * time.Minute),
		LastPhrase:    "Fleen drup.",
		Counts:        Counts{Fresh: 5, Dash: 2},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			PollMs:         20,
			HeartbeatMs:    900000,
			FreshCountdown: 120 * time.Minute,
			DashDelay:      5 * time.Minute,
			Broker:         "tcp://localhost:1883",
			HTTPAddr:       ":80",
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Mode != "FRESH_ACTIVE" {
		t.Errorf("Mode: got %q, want FRESH_ACTIVE", parsed.Status.Mode)
	}
	if parsed.Status.LastPhrase != "Fleen drup." {
		t.Errorf("LastPhrase: got %q", parsed.Status.LastPhrase)
	}
	if parsed.Status.LastEventTime != "2026-01-01T00:10:00Z" {
		t.Errorf("LastEventTime: got %q", parsed.Status.LastEventTime)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.Fresh != 5 || parsed.Status.Counts.Dash != 2 {
		t.Errorf("Counts: got %+v", parsed.Status.Counts)
	}
	if parsed.Status.Config.FreshCountdownS != 7200 {
		t.Errorf("FreshCountdownS: got %d, want 7200", parsed.Status.Config.FreshCountdownS)
	}
	if parsed.Status.Config.DashDelaySeconds != 300 {
		t.Errorf("DashDelaySeconds: got %d, want 300", parsed.Status.Config.DashDelaySeconds)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONUnknownMode(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if raw["status"]["mode"] != "UNKNOWN" {
		t.Errorf("mode: got %v, want UNKNOWN", raw["status"]["mode"])
	}
	if _, ok := raw["status"]["last_event_time"]; ok {
		t.Error("last_event_time should be omitted before any event")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Mode:      logic.ModeDashPending,
		Counts:    Counts{Dash: 3},
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
		Config:    Config{PollMs: 20, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.Mode != "DASH_PENDING" {
		t.Errorf("Mode: got %q, want DASH_PENDING", parsed.Status.Mode)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, exists := raw["status"]["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if raw["status"]["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", raw["status"]["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		Mode:      logic.ModeIdle,
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.BrewEvent(logic.Event{Type: logic.EventFresh, Mode: logic.ModeFreshActive})
			tr.RecordAction(logic.ActionBusy)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()

	if got := tr.Snapshot().Counts.Fresh; got != 1000 {
		t.Errorf("Counts.Fresh: got %d, want 1000", got)
	}
}

func TestTrackerIsObserver(t *testing.T) {
	var _ logic.Observer = (*Tracker)(nil)
}
