package timing

import (
	"fmt"
	"log"
	"math"
	"math/bits"
)

// Duration is an amount of simulated time, expressed as a number of cycles of
// a given clock.
//
// Durations are plain values. They can be compared with == and used as map
// keys. Arithmetic between durations of different clocks is a programming
// error and panics.
type Duration struct {
	freq   Freq
	cycles uint64
}

// NewDuration creates a duration of the given number of cycles.
//
//	NewDuration(16*MHz, 8_000_000) // 500 ms at 16 MHz
func NewDuration(freq Freq, cycles uint64) Duration {
	return Duration{freq: freq, cycles: cycles}
}

// Zero returns a duration of zero cycles at the given clock.
func Zero(freq Freq) Duration {
	return NewDuration(freq, 0)
}

// Micros returns a duration of n microseconds at the given clock.
func Micros(freq Freq, n uint64) Duration {
	return Zero(freq).AddMicros(n)
}

// Millis returns a duration of n milliseconds at the given clock.
func Millis(freq Freq, n uint64) Duration {
	return Zero(freq).AddMillis(n)
}

// Secs returns a duration of n seconds at the given clock.
func Secs(freq Freq, n uint64) Duration {
	return Zero(freq).AddSecs(n)
}

// AddCycles returns a new duration that is n cycles longer. It panics when
// the cycle count overflows.
func (d Duration) AddCycles(n uint64) Duration {
	sum, carry := bits.Add64(d.cycles, n, 0)
	if carry != 0 {
		log.Panicf("adding %d cycles to %d overflows the cycle count",
			n, d.cycles)
	}

	d.cycles = sum

	return d
}

// AddMicros returns a new duration that is n microseconds longer.
func (d Duration) AddMicros(n uint64) Duration {
	return d.AddCycles(d.cyclesOf(n, 1_000_000))
}

// AddMillis returns a new duration that is n milliseconds longer.
func (d Duration) AddMillis(n uint64) Duration {
	return d.AddCycles(d.cyclesOf(n, 1_000))
}

// AddSecs returns a new duration that is n seconds longer.
func (d Duration) AddSecs(n uint64) Duration {
	return d.AddCycles(d.cyclesOf(n, 1))
}

// cyclesOf converts n units, perSec of which make a second, into whole
// cycles. The product is computed on 128 bits.
func (d Duration) cyclesOf(n, perSec uint64) uint64 {
	hi, lo := bits.Mul64(n, uint64(d.freq))
	if hi >= perSec {
		log.Panicf("%d units at %d Hz overflow the cycle count", n, d.freq)
	}

	cycles, _ := bits.Div64(hi, lo, perSec)

	return cycles
}

// WithCycles returns a duration of exactly n cycles at the same clock.
func (d Duration) WithCycles(n uint64) Duration {
	d.cycles = n
	return d
}

// WithMicros returns a duration of exactly n microseconds at the same clock.
func (d Duration) WithMicros(n uint64) Duration {
	return d.WithCycles(0).AddMicros(n)
}

// WithMillis returns a duration of exactly n milliseconds at the same clock.
func (d Duration) WithMillis(n uint64) Duration {
	return d.WithCycles(0).AddMillis(n)
}

// WithSecs returns a duration of exactly n seconds at the same clock.
func (d Duration) WithSecs(n uint64) Duration {
	return d.WithCycles(0).AddSecs(n)
}

// Freq returns the clock the duration is measured in.
func (d Duration) Freq() Freq {
	return d.freq
}

// AsCycles returns the exact number of cycles.
func (d Duration) AsCycles() uint64 {
	return d.cycles
}

// AsMicros returns the duration in microseconds, rounded to nearest.
func (d Duration) AsMicros() uint64 {
	return uint64(math.Round(d.AsMicrosFloat()))
}

// AsMicrosFloat returns the duration in microseconds.
func (d Duration) AsMicrosFloat() float64 {
	return d.in(1_000_000)
}

// AsMillis returns the duration in milliseconds, rounded to nearest.
func (d Duration) AsMillis() uint64 {
	return uint64(math.Round(d.AsMillisFloat()))
}

// AsMillisFloat returns the duration in milliseconds.
func (d Duration) AsMillisFloat() float64 {
	return d.in(1_000)
}

// AsSecs returns the duration in seconds, rounded to nearest.
func (d Duration) AsSecs() uint64 {
	return uint64(math.Round(d.AsSecsFloat()))
}

// AsSecsFloat returns the duration in seconds.
func (d Duration) AsSecsFloat() float64 {
	return d.in(1)
}

func (d Duration) in(unitsPerSec float64) float64 {
	if d.freq == 0 {
		log.Panic("cannot convert a duration without a clock frequency")
	}

	return float64(d.cycles) / (float64(d.freq) / unitsPerSec)
}

// IsZero reports whether the duration has no cycles.
func (d Duration) IsZero() bool {
	return d.cycles == 0
}

// Add returns d + o.
func (d Duration) Add(o Duration) Duration {
	d.mustShareClock(o, "add")

	return d.AddCycles(o.cycles)
}

// Sub returns d - o. The result saturates at zero cycles.
func (d Duration) Sub(o Duration) Duration {
	d.mustShareClock(o, "subtract")

	if o.cycles >= d.cycles {
		d.cycles = 0
	} else {
		d.cycles -= o.cycles
	}

	return d
}

// Compare returns -1, 0 or +1 depending on whether d is shorter than, as long
// as, or longer than o.
func (d Duration) Compare(o Duration) int {
	d.mustShareClock(o, "compare")

	switch {
	case d.cycles < o.cycles:
		return -1
	case d.cycles > o.cycles:
		return 1
	default:
		return 0
	}
}

// Less reports whether d is shorter than o.
func (d Duration) Less(o Duration) bool {
	return d.Compare(o) < 0
}

// LessEq reports whether d is not longer than o.
func (d Duration) LessEq(o Duration) bool {
	return d.Compare(o) <= 0
}

func (d Duration) mustShareClock(o Duration, op string) {
	if d.freq != o.freq {
		log.Panicf(
			"cannot %s durations with different clock frequencies (%d vs %d)",
			op, d.freq, o.freq,
		)
	}
}

func (d Duration) String() string {
	if d.freq == 0 {
		return fmt.Sprintf("%d cycles", d.cycles)
	}

	return fmt.Sprintf("%d µs", d.AsMicros())
}
