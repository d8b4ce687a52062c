package ring

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/dripbot/internal/clock"
)

// ErrTimerUsed is returned when arming a timer that is not idle.
// Timers are single-use; create a new one per countdown.
var ErrTimerUsed = errors.New("ring: timer already armed")

// TimerState is the lifecycle state of a Timer.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerArmed
	TimerCancelled
	TimerCompleted
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "IDLE"
	case TimerArmed:
		return "ARMED"
	case TimerCancelled:
		return "CANCELLED"
	case TimerCompleted:
		return "COMPLETED"
	}
	return fmt.Sprintf("TimerState(%d)", int(s))
}

// Timer maps a countdown onto a fixed number of steps, calling onStep for
// each. Steps run on clock callbacks; Cancel may be called from any
// goroutine and never interrupts a running step.
type Timer struct {
	clock clock.Clock

	mu       sync.Mutex
	state    TimerState
	pending  clock.Timer
	interval time.Duration
	steps    int
	next     int
	onStep   func(step int) error
	onCancel func()
}

// NewTimer creates an idle Timer scheduled on c.
func NewTimer(c clock.Clock) *Timer {
	return &Timer{clock: c}
}

// Arm schedules steps calls of onStep spaced total/steps apart, the first
// one total/steps from now. onStep must not call Cancel on the same timer.
// onCancel, if set, runs once if the countdown is cancelled before it
// completes.
func (t *Timer) Arm(total time.Duration, steps int, onStep func(step int) error, onCancel func()) error {
	if steps <= 0 {
		return fmt.Errorf("ring: countdown needs at least one step, got %d", steps)
	}
	if total < 0 {
		return fmt.Errorf("ring: negative countdown %v", total)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TimerIdle {
		return fmt.Errorf("%w (state %s)", ErrTimerUsed, t.state)
	}
	t.state = TimerArmed
	t.interval = total / time.Duration(steps)
	t.steps = steps
	t.onStep = onStep
	t.onCancel = onCancel
	t.pending = t.clock.AfterFunc(t.interval, t.fire)
	return nil
}

func (t *Timer) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TimerArmed {
		return
	}

	step := t.next
	t.next++
	if err := t.onStep(step); err != nil {
		slog.Warn("countdown step failed", "step", step, "err", err)
	}

	if t.next >= t.steps {
		t.state = TimerCompleted
		t.pending = nil
		return
	}
	t.pending = t.clock.AfterFunc(t.interval, t.fire)
}

// Cancel stops the countdown. It is a no-op unless the timer is armed.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.state != TimerArmed {
		t.mu.Unlock()
		return
	}
	t.state = TimerCancelled
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	onCancel := t.onCancel
	t.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
}

// State returns the current lifecycle state.
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining returns the number of steps not yet run.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.steps - t.next
}
