// Package timing provides the clock-frequency and cycle-duration types used as
// the unit of simulated time throughout the tester.
package timing

import (
	"errors"
	"fmt"
)

// Freq defines a clock frequency in Hz.
type Freq uint32

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
)

// ErrZeroFrequency is returned when a zero clock frequency is configured.
var ErrZeroFrequency = errors.New("timing: frequency cannot be 0")

// Validate reports whether the frequency can drive a clock.
func (f Freq) Validate() error {
	if f == 0 {
		return ErrZeroFrequency
	}

	return nil
}

func (f Freq) String() string {
	switch {
	case f >= MHz && f%MHz == 0:
		return fmt.Sprintf("%d MHz", f/MHz)
	case f >= KHz && f%KHz == 0:
		return fmt.Sprintf("%d kHz", f/KHz)
	default:
		return fmt.Sprintf("%d Hz", uint32(f))
	}
}
