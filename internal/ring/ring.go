// Package ring drives the indicator light ring: the hardware abstraction,
// colors, blocking animations and the countdown timer.
// The real implementation uses a WS281x NeoPixel ring.
// The memory implementation allows testing and running without hardware.
package ring

import (
	"errors"
	"fmt"
)

// ErrHardware wraps failures writing to the light ring.
var ErrHardware = errors.New("ring: hardware write failed")

// Ring is an addressable sequence of lights. Writes are buffered by SetSlot
// and become visible on Flush.
type Ring interface {
	Len() int
	SetSlot(i int, c Color) error
	Flush() error
}

// Color is a 24-bit 0xRRGGBB value, the layout the WS281x driver expects.
type Color uint32

// RGB builds a Color from its components.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB splits c into its components.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex formats c as a CSS color.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// Named colors.
var (
	Off   = RGB(0, 0, 0)
	Alert = RGB(255, 0, 0)
	Dash  = RGB(200, 160, 0)
	Ready = RGB(0, 0, 255)
)

// FreshPalette fades cyan to magenta across a 16 slot ring.
var FreshPalette = []Color{
	RGB(0, 200, 200), RGB(12, 188, 200), RGB(25, 175, 200), RGB(38, 162, 200),
	RGB(50, 150, 200), RGB(62, 138, 200), RGB(75, 125, 200), RGB(88, 112, 200),
	RGB(100, 100, 200), RGB(112, 88, 200), RGB(125, 75, 200), RGB(138, 62, 200),
	RGB(150, 50, 200), RGB(162, 38, 200), RGB(175, 25, 200), RGB(200, 0, 200),
}

// DashPalette is solid amber.
var DashPalette = []Color{Dash}

// paletteAt stretches palette over n slots.
func paletteAt(palette []Color, i, n int) Color {
	if len(palette) == 0 {
		return Off
	}
	return palette[i*len(palette)/n]
}

// HardwareConfig describes a WS281x ring.
type HardwareConfig struct {
	Pin        int // BCM pin, 18 uses PWM
	Count      int
	Brightness int // 0..255
	DMA        int
	Frequency  int // Hz
}

// DefaultHardware matches a 16 LED NeoPixel ring on BCM 18.
var DefaultHardware = HardwareConfig{
	Pin:        18,
	Count:      16,
	Brightness: 10,
	DMA:        10,
	Frequency:  800000,
}

func hardwareErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrHardware, op, err)
}
