//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealButton reads a button from actual hardware using Linux GPIO character device.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealButton requests pin on chip as an input with pull-up.
func NewRealButton(chip string, pin int) (*RealButton, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chip, err)
	}

	line, err := c.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("dripbot"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealButton{chip: c, line: line, pin: pin}, nil
}

// Pressed returns true while the button holds the line low.
func (b *RealButton) Pressed() (bool, error) {
	raw, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin %d: %w", b.pin, err)
	}
	return raw == 0, nil
}

// Close releases the line and chip.
// The line is left as an input with pull-up, the state it was requested in.
func (b *RealButton) Close() error {
	var errs []error

	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
