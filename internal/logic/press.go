package logic

import "time"

// PressDetector turns polled button samples into one duration per press.
type PressDetector struct {
	cap      time.Duration
	down     bool
	since    time.Time
	reported bool
}

// NewPressDetector creates a detector that stops measuring at cap.
func NewPressDetector(cap time.Duration) *PressDetector {
	return &PressDetector{cap: cap}
}

// Process takes a button sample and returns the press duration once per
// press: when the button is released, or as soon as it has been held for
// the cap, whichever is first. A held button is not reported again until
// it has been released.
func (p *PressDetector) Process(pressed bool, now time.Time) (time.Duration, bool) {
	if !p.down {
		if pressed {
			p.down = true
			p.since = now
			p.reported = false
		}
		return 0, false
	}

	held := now.Sub(p.since)
	if pressed {
		if !p.reported && held >= p.cap {
			p.reported = true
			return held, true
		}
		return 0, false
	}

	p.down = false
	if p.reported {
		return 0, false
	}
	return held, true
}

// Down reports whether a press is in progress.
func (p *PressDetector) Down() bool {
	return p.down
}
