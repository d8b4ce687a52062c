// Package gpio provides button input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Button reads the state of a momentary push button.
type Button interface {
	// Pressed returns the logical button state.
	// The line is pulled up and the button shorts it to ground:
	// raw low = pressed.
	Pressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the button's BCM pin number.
const DefaultPin = 24

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"
