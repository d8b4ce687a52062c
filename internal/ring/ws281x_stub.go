//go:build !(linux && ws281x)

package ring

import "errors"

// WS281x is not available without the ws281x build tag on Linux.
type WS281x struct{}

// NewWS281x returns an error; build with -tags ws281x on a Pi.
func NewWS281x(HardwareConfig) (*WS281x, error) {
	return nil, errors.New("ring: ws281x not supported in this build (requires linux and -tags ws281x)")
}

// Len is zero.
func (w *WS281x) Len() int { return 0 }

// SetSlot is not implemented.
func (w *WS281x) SetSlot(int, Color) error { return errors.New("ring: ws281x not supported") }

// Flush is not implemented.
func (w *WS281x) Flush() error { return errors.New("ring: ws281x not supported") }

// Close does nothing.
func (w *WS281x) Close() error { return nil }
