// Package status provides a thread-safe status tracker for the dripbot daemon.
// It is read by the HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dripbot/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	HeartbeatMs    int64
	FreshCountdown time.Duration
	DashDelay      time.Duration
	Channel        string
	Broker         string
	HTTPAddr       string
}

// Counts tallies brew events and button outcomes since startup.
type Counts struct {
	Fresh   int
	Dash    int
	Failed  int
	Expired int
	Ignored int
	Busy    int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode          logic.Mode
	LastEvent     logic.EventType
	LastEventTime time.Time
	LastPhrase    string
	LastError     string
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Mode:      logic.ModeIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// BrewEvent records a machine transition. It satisfies logic.Observer.
func (t *Tracker) BrewEvent(e logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Mode = e.Mode
	t.snap.LastEvent = e.Type
	t.snap.LastEventTime = e.Timestamp

	switch e.Type {
	case logic.EventFresh:
		t.snap.Counts.Fresh++
		t.snap.LastPhrase = e.Phrase
		t.snap.LastError = ""
	case logic.EventDash:
		t.snap.Counts.Dash++
	case logic.EventAnnounceFailed:
		t.snap.Counts.Failed++
		t.snap.LastPhrase = e.Phrase
		if e.Err != nil {
			t.snap.LastError = e.Err.Error()
		}
	case logic.EventExpired:
		t.snap.Counts.Expired++
	}
}

// RecordAction counts button outcomes that produce no brew event.
func (t *Tracker) RecordAction(a logic.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch a {
	case logic.ActionIgnored:
		t.snap.Counts.Ignored++
	case logic.ActionBusy:
		t.snap.Counts.Busy++
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
