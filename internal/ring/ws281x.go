//go:build linux && ws281x

package ring

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// WS281x drives a NeoPixel ring through the rpi_ws281x library.
type WS281x struct {
	dev *ws2811.WS2811
	n   int
}

// NewWS281x initializes the ring described by cfg.
func NewWS281x(cfg HardwareConfig) (*WS281x, error) {
	ch := ws2811.DefaultOptions.Channels[0]
	ch.GpioPin = cfg.Pin
	ch.LedCount = cfg.Count
	ch.Brightness = cfg.Brightness
	ch.StripeType = ws2811.WS2811StripGRB

	opt := ws2811.DefaultOptions
	opt.Frequency = cfg.Frequency
	opt.DmaNum = cfg.DMA
	opt.Channels = []ws2811.ChannelOption{ch}

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("create ws281x: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("init ws281x on pin %d: %w", cfg.Pin, err)
	}
	return &WS281x{dev: dev, n: cfg.Count}, nil
}

// Len returns the LED count.
func (w *WS281x) Len() int {
	return w.n
}

// SetSlot buffers c for LED i.
func (w *WS281x) SetSlot(i int, c Color) error {
	if i < 0 || i >= w.n {
		return fmt.Errorf("ring: slot %d out of range [0, %d)", i, w.n)
	}
	w.dev.Leds(0)[i] = uint32(c)
	return nil
}

// Flush renders the buffer.
func (w *WS281x) Flush() error {
	if err := w.dev.Render(); err != nil {
		return hardwareErr("render", err)
	}
	return nil
}

// Close turns every LED off and releases the driver.
func (w *WS281x) Close() error {
	err := Fill(w, Off)
	w.dev.Fini()
	return err
}
