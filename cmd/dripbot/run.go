package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/dripbot/internal/chat"
	"github.com/sweeney/dripbot/internal/clock"
	"github.com/sweeney/dripbot/internal/gpio"
	"github.com/sweeney/dripbot/internal/history"
	"github.com/sweeney/dripbot/internal/logic"
	"github.com/sweeney/dripbot/internal/mqtt"
	"github.com/sweeney/dripbot/internal/ring"
	"github.com/sweeney/dripbot/internal/status"
	"github.com/sweeney/dripbot/internal/web"
	"github.com/sweeney/dripbot/internal/words"
)

func newRunCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the button and ring daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := setup(cmd, o)
			if err != nil {
				return err
			}
			defer closer.Close()
			if err := run(o); err != nil {
				slog.Error("fatal", "err", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.channel, "channel", o.channel, "Mattermost channel (default: the webhook's)")
	f.StringVar(&o.username, "username", o.username, "name the announcement is posted as")
	f.StringVar(&o.iconURL, "icon-url", o.iconURL, "avatar URL for the announcement")
	f.StringVar(&o.chip, "chip", o.chip, "GPIO chip")
	f.IntVar(&o.buttonPin, "pin", o.buttonPin, "BCM pin number of the button")
	f.StringVar(&o.ringKind, "ring", o.ringKind, `light ring driver: "ws281x" or "memory"`)
	f.IntVar(&o.ringPin, "ring-pin", o.ringPin, "BCM pin number of the NeoPixel data line")
	f.IntVar(&o.ringCount, "ring-count", o.ringCount, "number of LEDs on the ring")
	f.IntVar(&o.ringBrightness, "brightness", o.ringBrightness, "ring brightness (0-255)")
	f.DurationVar(&o.freshCountdown, "fresh-countdown", o.freshCountdown, "ring countdown after an announcement")
	f.DurationVar(&o.dashDelay, "dash-delay", o.dashDelay, "brew time before a dash is announced")
	f.DurationVar(&o.holdoff, "holdoff", o.holdoff, "ignore presses for this long after each event")
	f.DurationVar(&o.poll, "poll", o.poll, "button polling interval")
	f.DurationVar(&o.heartbeat, "heartbeat", o.heartbeat, "heartbeat interval (0 to disable)")
	f.StringVar(&o.broker, "broker", o.broker, "MQTT broker address")
	f.StringVar(&o.clientID, "client-id", o.clientID, "MQTT client ID")
	f.StringVar(&o.httpAddr, "http", o.httpAddr, "HTTP status address (empty to disable)")
	return cmd
}

// lightRing is a ring that holds hardware resources.
type lightRing interface {
	ring.Ring
	io.Closer
}

func openRing(o *options) (lightRing, error) {
	switch o.ringKind {
	case "memory":
		return ring.NewMemory(o.ringCount), nil
	case "ws281x":
		hw := ring.DefaultHardware
		hw.Pin = o.ringPin
		hw.Count = o.ringCount
		hw.Brightness = o.ringBrightness
		return ring.NewWS281x(hw)
	}
	return nil, fmt.Errorf("unknown ring driver %q", o.ringKind)
}

func run(o *options) error {
	if o.poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", o.poll)
	}

	tables, err := o.loadTables()
	if err != nil {
		return fmt.Errorf("load letter tables: %w", err)
	}
	sender, err := chat.NewWebhook(o.chatConfig())
	if err != nil {
		return fmt.Errorf("init chat: %w", err)
	}

	button, err := gpio.NewRealButton(o.chip, o.buttonPin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer button.Close()

	lights, err := openRing(o)
	if err != nil {
		return fmt.Errorf("init ring: %w", err)
	}
	defer lights.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(o.broker, o.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	observers := observerList{
		logic.ObserverFunc(logEvent),
		publishObserver(publisher),
	}

	var store *history.SQLiteStore
	if o.history != "" {
		store, err = history.NewSQLiteStore(o.history)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		observers = append(observers, history.NewRecorder(store))
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:         o.poll.Milliseconds(),
		HeartbeatMs:    o.heartbeat.Milliseconds(),
		FreshCountdown: o.freshCountdown,
		DashDelay:      o.dashDelay,
		Channel:        o.channel,
		Broker:         o.broker,
		HTTPAddr:       o.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	observers = append(observers, tracker)

	machine := logic.NewMachine(o.machineConfig(), logic.Deps{
		Clock:     clock.Real{},
		Ring:      lights,
		Phrases:   words.NewGenerator(tables),
		Announcer: sender,
		Observer:  observers,
	})
	defer machine.Stop()

	publishLifecycle(publisher, publisher, tracker, "STARTUP", "")

	// Start HTTP status server
	if o.httpAddr != "" {
		var hist web.HistoryLister
		if store != nil {
			hist = store
		}
		srv := web.New(o.httpAddr, tracker, hist)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("http status server listening", "addr", o.httpAddr)
	}

	machine.Ready()
	slog.Info("started", "poll", o.poll, "broker", o.broker, "heartbeat", o.heartbeat,
		"fresh_countdown", o.freshCountdown, "dash_delay", o.dashDelay)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	dispatch := func(f func()) { go f() }
	err = runLoop(button, machine, publisher, publisher, tracker, o.heartbeat, time.Now, ticker.C, sigCh, dispatch)

	machine.Stop()
	if err := ring.Fill(lights, ring.Off); err != nil {
		slog.Warn("clear ring on exit", "err", err)
	}
	return err
}

// buttonHandler receives completed presses.
type buttonHandler interface {
	OnButtonEvent(d time.Duration) logic.Action
}

// runLoop polls the button until a signal arrives. Completed presses are
// handed to dispatch so animation and the webhook post never stall polling.
func runLoop(button gpio.Button, handler buttonHandler, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, dispatch func(func())) error {
	detector := logic.NewPressDetector(logic.PressCap)
	lastHeartbeat := now()
	var readErrLogged bool

	for {
		select {
		case s := <-sig:
			slog.Info("shutting down", "signal", s)
			publishLifecycle(publisher, mqttStatus, tracker, "SHUTDOWN", signalName(s))
			return nil

		case <-tick:
			t := now()
			pressed, err := button.Pressed()
			if err != nil {
				if !readErrLogged {
					slog.Error("gpio read error", "err", err)
					readErrLogged = true
				}
				continue
			}
			readErrLogged = false

			if d, ok := detector.Process(pressed, t); ok {
				slog.Debug("press complete", "duration", d)
				dispatch(func() {
					action := handler.OnButtonEvent(d)
					if tracker != nil {
						tracker.RecordAction(action)
					}
				})
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				if net := readNetworkInfo(); net != nil && tracker != nil {
					tracker.SetNetwork(net)
				}
				publishLifecycle(publisher, mqttStatus, tracker, "HEARTBEAT", "")
			}

			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}
	}
}

// publishLifecycle sends a system event carrying a full status snapshot.
// STARTUP and SHUTDOWN are retained so late subscribers see the last one.
func publishLifecycle(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string) {
	ev := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  event != "HEARTBEAT",
	}
	if tracker != nil {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		ev.Timestamp = snap.Now
		ev.RawPayload = status.FormatStatusEvent(snap, event, reason)
	}
	if err := publisher.PublishSystem(ev); err != nil {
		slog.Warn("failed to publish system event", "event", event, "err", err)
		return
	}
	slog.Debug("published system event", "event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// observerList fans a brew event out to every observer in order.
type observerList []logic.Observer

func (l observerList) BrewEvent(e logic.Event) {
	for _, o := range l {
		o.BrewEvent(e)
	}
}

func publishObserver(p mqtt.Publisher) logic.Observer {
	return logic.ObserverFunc(func(e logic.Event) {
		if err := p.Publish(e); err != nil {
			// Don't crash on publish failure
			slog.Warn("publish error", "event", e.Type, "err", err)
		}
	})
}

func logEvent(e logic.Event) {
	attrs := []any{"event", e.Type, "mode", e.Mode, "source", e.Source}
	if e.Phrase != "" {
		attrs = append(attrs, "phrase", e.Phrase)
	}
	if e.Err != nil {
		attrs = append(attrs, "err", e.Err)
	}
	slog.Info("brew event", attrs...)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
