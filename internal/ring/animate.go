package ring

import (
	"errors"
	"time"
)

// Sleeper pauses between animation frames.
type Sleeper func(time.Duration)

// Wipe paints palette onto r one slot at a time, from the last slot to the
// first, flushing after each slot.
func Wipe(r Ring, palette []Color, interval time.Duration, sleep Sleeper) error {
	n := r.Len()
	var errs []error
	for i := n - 1; i >= 0; i-- {
		errs = append(errs, r.SetSlot(i, paletteAt(palette, i, n)), r.Flush())
		sleep(interval)
	}
	return errors.Join(errs...)
}

// Solid paints every slot c one at a time from the first slot.
func Solid(r Ring, c Color, interval time.Duration, sleep Sleeper) error {
	var errs []error
	for i := 0; i < r.Len(); i++ {
		errs = append(errs, r.SetSlot(i, c), r.Flush())
		sleep(interval)
	}
	return errors.Join(errs...)
}

// Flash blinks the whole ring c and off, times times.
func Flash(r Ring, c Color, times int, interval time.Duration, sleep Sleeper) error {
	var errs []error
	for i := 0; i < times; i++ {
		errs = append(errs, Fill(r, c))
		sleep(interval)
		errs = append(errs, Fill(r, Off))
		sleep(interval)
	}
	return errors.Join(errs...)
}

// Fill sets every slot to c with a single flush.
func Fill(r Ring, c Color) error {
	var errs []error
	for i := 0; i < r.Len(); i++ {
		errs = append(errs, r.SetSlot(i, c))
	}
	errs = append(errs, r.Flush())
	return errors.Join(errs...)
}

// Extinguish turns off slot i. It is the countdown step.
func Extinguish(r Ring, i int) error {
	return errors.Join(r.SetSlot(i, Off), r.Flush())
}
