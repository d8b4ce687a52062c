package logic

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/dripbot/internal/clock"
	"github.com/sweeney/dripbot/internal/ring"
)

// FallbackPhrase is announced when phrase generation fails.
const FallbackPhrase = "Fresh drip."

// PhraseSource produces announcement text.
type PhraseSource interface {
	Phrase() (string, error)
}

// Announcer delivers announcement text to the chat channel.
type Announcer interface {
	Send(ctx context.Context, text string) error
}

// Observer receives every brew transition. It is called from the button
// goroutine and from countdown callbacks, so it must be safe for concurrent
// use and must not call back into the Machine.
type Observer interface {
	BrewEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// BrewEvent calls f.
func (f ObserverFunc) BrewEvent(e Event) { f(e) }

// Config holds the machine's timing.
type Config struct {
	FreshCountdown time.Duration // ring countdown after an announcement
	DashDelay      time.Duration // brewing time before the deferred announcement
	Holdoff        time.Duration // in-flight hold after each event, absorbs double taps
	FlashTimes     int
	FlashInterval  time.Duration
	WipeInterval   time.Duration
	SendTimeout    time.Duration
}

// DefaultConfig returns the production timing.
func DefaultConfig() Config {
	return Config{
		FreshCountdown: 120 * time.Minute,
		DashDelay:      5 * time.Minute,
		Holdoff:        time.Second,
		FlashTimes:     10,
		FlashInterval:  100 * time.Millisecond,
		WipeInterval:   50 * time.Millisecond,
		SendTimeout:    10 * time.Second,
	}
}

// Deps are the machine's collaborators. Observer may be nil.
type Deps struct {
	Clock     clock.Clock
	Ring      ring.Ring
	Phrases   PhraseSource
	Announcer Announcer
	Observer  Observer
}

// Machine owns the brew mode, the single armed ring countdown and the
// pending dash deferral. All transitions run under mu.
type Machine struct {
	cfg  Config
	deps Deps

	inFlight atomic.Bool
	mode     atomic.Value // Mode

	mu    sync.Mutex
	epoch uint64
	timer *ring.Timer
	dash  clock.Timer
}

// NewMachine creates an idle Machine.
func NewMachine(cfg Config, deps Deps) *Machine {
	if deps.Observer == nil {
		deps.Observer = ObserverFunc(func(Event) {})
	}
	m := &Machine{cfg: cfg, deps: deps}
	m.mode.Store(ModeIdle)
	return m
}

// Mode returns the current brew mode.
func (m *Machine) Mode() Mode {
	return m.mode.Load().(Mode)
}

// Busy reports whether a button event is being processed.
func (m *Machine) Busy() bool {
	return m.inFlight.Load()
}

// Ready flashes the ring to show the daemon has started.
func (m *Machine) Ready() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ring.Flash(m.deps.Ring, ring.Ready, m.cfg.FlashTimes, m.cfg.FlashInterval, m.deps.Clock.Sleep); err != nil {
		slog.Warn("ready flash failed", "err", err)
	}
}

// OnButtonEvent handles one completed press of duration d. Events arriving
// while another is in flight are dropped.
func (m *Machine) OnButtonEvent(d time.Duration) Action {
	kind := Classify(d)
	if kind == PressBounce {
		slog.Debug("button bounce ignored", "duration", d)
		return ActionIgnored
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		slog.Debug("button event dropped, busy", "duration", d)
		return ActionBusy
	}
	defer m.inFlight.Store(false)

	slog.Debug("button press", "kind", kind, "duration", d)

	var action Action
	m.mu.Lock()
	m.supersedeLocked()
	if kind == PressShort {
		m.freshLocked(SourceButton)
		action = ActionFresh
	} else {
		m.dashLocked()
		action = ActionDash
	}
	m.mu.Unlock()

	m.deps.Clock.Sleep(m.cfg.Holdoff)
	return action
}

// Stop cancels any armed countdown and pending dash deferral.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supersedeLocked()
}

// supersedeLocked invalidates every pending callback from earlier events.
func (m *Machine) supersedeLocked() {
	m.epoch++
	if m.timer != nil {
		m.timer.Cancel()
		m.timer = nil
	}
	if m.dash != nil {
		m.dash.Stop()
		m.dash = nil
	}
}

func (m *Machine) freshLocked(src Source) {
	m.mode.Store(ModeFreshActive)
	if err := ring.Wipe(m.deps.Ring, ring.FreshPalette, m.cfg.WipeInterval, m.deps.Clock.Sleep); err != nil {
		slog.Warn("fresh wipe failed", "err", err)
	}

	phrase, err := m.deps.Phrases.Phrase()
	if err != nil {
		slog.Error("phrase generation failed", "err", err)
		phrase = FallbackPhrase
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SendTimeout)
	defer cancel()
	if err := m.deps.Announcer.Send(ctx, phrase); err != nil {
		slog.Error("error sending", "phrase", phrase, "err", err)
		if err := ring.Solid(m.deps.Ring, ring.Alert, m.cfg.WipeInterval, m.deps.Clock.Sleep); err != nil {
			slog.Warn("alert wipe failed", "err", err)
		}
		m.emit(EventAnnounceFailed, src, phrase, err)
		return
	}

	slog.Info("drip sent", "phrase", phrase, "source", src)
	m.emit(EventFresh, src, phrase, nil)
	m.armLocked(m.cfg.FreshCountdown, func() {
		if m.mode.CompareAndSwap(ModeFreshActive, ModeIdle) {
			m.emit(EventExpired, SourceCountdown, "", nil)
		}
	})
}

func (m *Machine) dashLocked() {
	if err := ring.Flash(m.deps.Ring, ring.Dash, m.cfg.FlashTimes, m.cfg.FlashInterval, m.deps.Clock.Sleep); err != nil {
		slog.Warn("dash flash failed", "err", err)
	}
	m.mode.Store(ModeDashPending)
	if err := ring.Wipe(m.deps.Ring, ring.DashPalette, m.cfg.WipeInterval, m.deps.Clock.Sleep); err != nil {
		slog.Warn("dash wipe failed", "err", err)
	}
	m.emit(EventDash, SourceButton, "", nil)
	m.armLocked(m.cfg.DashDelay, nil)

	epoch := m.epoch
	m.dash = m.deps.Clock.AfterFunc(m.cfg.DashDelay, func() { m.dashElapsed(epoch) })
}

// dashElapsed announces the pot brewed under a dash, unless a newer event
// has superseded it.
func (m *Machine) dashElapsed(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.dash = nil
	m.supersedeLocked()
	m.freshLocked(SourceDash)
}

// armLocked starts a countdown across every ring slot. onComplete runs
// inside the last step and must not touch mu.
func (m *Machine) armLocked(total time.Duration, onComplete func()) {
	n := m.deps.Ring.Len()
	t := ring.NewTimer(m.deps.Clock)
	err := t.Arm(total, n, func(step int) error {
		err := ring.Extinguish(m.deps.Ring, step)
		if step == n-1 && onComplete != nil {
			onComplete()
		}
		return err
	}, nil)
	if err != nil {
		slog.Error("arm countdown failed", "err", err)
		return
	}
	m.timer = t
}

func (m *Machine) emit(typ EventType, src Source, phrase string, err error) {
	m.deps.Observer.BrewEvent(Event{
		Timestamp: m.deps.Clock.Now(),
		Type:      typ,
		Mode:      m.Mode(),
		Source:    src,
		Phrase:    phrase,
		Err:       err,
	})
}
