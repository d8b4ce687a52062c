// Package logic contains the brew state machine and button press handling.
// Time is injected: sample times are passed in, and deferred work is
// scheduled on a clock.Clock.
package logic

import (
	"fmt"
	"time"
)

// Mode is the brew mode shown on the ring.
type Mode string

const (
	ModeIdle        Mode = "IDLE"
	ModeDashPending Mode = "DASH_PENDING"
	ModeFreshActive Mode = "FRESH_ACTIVE"
)

// PressKind classifies a button press by duration.
type PressKind int

const (
	PressBounce PressKind = iota
	PressShort
	PressLong
)

func (k PressKind) String() string {
	switch k {
	case PressBounce:
		return "BOUNCE"
	case PressShort:
		return "SHORT"
	case PressLong:
		return "LONG"
	}
	return fmt.Sprintf("PressKind(%d)", int(k))
}

// Press duration thresholds.
const (
	// BounceThreshold is the shortest press treated as intentional.
	BounceThreshold = 100 * time.Millisecond
	// LongPressThreshold separates a fresh tap from a dash hold.
	LongPressThreshold = time.Second
	// PressCap stops measuring a held button; the press counts as long.
	PressCap = 1100 * time.Millisecond
)

// Classify maps a press duration onto a PressKind.
func Classify(d time.Duration) PressKind {
	switch {
	case d < BounceThreshold:
		return PressBounce
	case d < LongPressThreshold:
		return PressShort
	default:
		return PressLong
	}
}

// Action is the outcome of a button event.
type Action string

const (
	ActionIgnored Action = "IGNORED" // bounce
	ActionBusy    Action = "BUSY"    // dropped, another event in flight
	ActionFresh   Action = "FRESH"
	ActionDash    Action = "DASH"
)

// EventType identifies a brew transition.
type EventType string

const (
	EventFresh          EventType = "FRESH"
	EventDash           EventType = "DASH"
	EventAnnounceFailed EventType = "ANNOUNCE_FAILED"
	EventExpired        EventType = "EXPIRED"
)

// Source says what triggered a transition.
type Source string

const (
	SourceButton    Source = "BUTTON"
	SourceDash      Source = "DASH"
	SourceCountdown Source = "COUNTDOWN"
)

// Event describes a brew transition, reported to the Observer.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Mode      Mode
	Source    Source
	Phrase    string
	Err       error // set for EventAnnounceFailed
}
