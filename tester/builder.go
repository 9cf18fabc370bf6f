package tester

import (
	"log"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

type timeoutUnit int

const (
	timeoutNone timeoutUnit = iota
	timeoutCycles
	timeoutMicros
	timeoutMillis
	timeoutSecs
)

// Builder can be used to build a Tester.
type Builder struct {
	clock        timing.Freq
	timeoutUnit  timeoutUnit
	timeoutValue uint64
	allowSleep   bool
}

// MakeBuilder creates a new builder. By default the clock is taken from the
// simulator, there is no timeout, and a sleeping MCU is an error.
func MakeBuilder() Builder {
	return Builder{}
}

// WithClock sets the clock frequency the tester expects the simulator to run
// at. Build panics if the simulator disagrees.
func (b Builder) WithClock(freq timing.Freq) Builder {
	b.clock = freq
	return b
}

// WithTimeout aborts the run once the simulated clock has advanced by d. The
// duration is reinterpreted at the tester's clock frequency.
func (b Builder) WithTimeout(d timing.Duration) Builder {
	b.timeoutUnit = timeoutCycles
	b.timeoutValue = d.AsCycles()

	return b
}

// WithTimeoutOfMicros is WithTimeout expressed in microseconds.
func (b Builder) WithTimeoutOfMicros(n uint64) Builder {
	b.timeoutUnit = timeoutMicros
	b.timeoutValue = n

	return b
}

// WithTimeoutOfMillis is WithTimeout expressed in milliseconds.
func (b Builder) WithTimeoutOfMillis(n uint64) Builder {
	b.timeoutUnit = timeoutMillis
	b.timeoutValue = n

	return b
}

// WithTimeoutOfSecs is WithTimeout expressed in seconds.
func (b Builder) WithTimeoutOfSecs(n uint64) Builder {
	b.timeoutUnit = timeoutSecs
	b.timeoutValue = n

	return b
}

// WithoutTimeout removes a previously configured timeout.
func (b Builder) WithoutTimeout() Builder {
	b.timeoutUnit = timeoutNone
	b.timeoutValue = 0

	return b
}

// WithSleepAllowed lets the MCU enter sleep mode without failing the run.
func (b Builder) WithSleepAllowed() Builder {
	b.allowSleep = true
	return b
}

func (b Builder) parametersMustBeValid(sim mcu.Simulator) {
	if sim == nil {
		log.Panic("a simulator is required")
	}

	if err := sim.Freq().Validate(); err != nil {
		log.Panic(err)
	}

	if b.clock != 0 && b.clock != sim.Freq() {
		log.Panicf("tester expects a %s clock, but the simulator runs at %s",
			b.clock, sim.Freq())
	}

	if b.timeoutUnit != timeoutNone && b.timeoutValue == 0 {
		log.Panic("timeout must be greater than zero")
	}
}

func (b Builder) budget(freq timing.Freq) *timing.Duration {
	var d timing.Duration

	switch b.timeoutUnit {
	case timeoutNone:
		return nil
	case timeoutCycles:
		d = timing.NewDuration(freq, b.timeoutValue)
	case timeoutMicros:
		d = timing.Micros(freq, b.timeoutValue)
	case timeoutMillis:
		d = timing.Millis(freq, b.timeoutValue)
	case timeoutSecs:
		d = timing.Secs(freq, b.timeoutValue)
	}

	return &d
}

// Build creates a tester that drives sim.
func (b Builder) Build(sim mcu.Simulator) *Tester {
	b.parametersMustBeValid(sim)

	freq := sim.Freq()
	t := &Tester{
		HookableBase: hooking.NewHookableBase(),
		sim:          sim,
		freq:         freq,
		comps:        components.New(),
		allowSleep:   b.allowSleep,
		now:          timing.Zero(freq),
	}

	if budget := b.budget(freq); budget != nil {
		t.hasBudget = true
		t.budget = *budget
		t.remaining = *budget
	}

	return t
}
