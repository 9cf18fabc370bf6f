package tester

import (
	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/timing"
)

// AsyncTester is the view of the tester available to task bodies. Its
// methods must only be called from inside the task that owns rt; waiting
// methods suspend the task instead of stepping the simulator.
type AsyncTester struct {
	rt *components.Runtime
	d  asyncDriver
}

// Async returns the task-side view of the tester.
func Async(rt *components.Runtime) *AsyncTester {
	return &AsyncTester{rt: rt, d: asyncDriver{rt: rt}}
}

// Run waits for the next instruction and returns how long it took.
func (a *AsyncTester) Run() timing.Duration {
	return a.rt.Step()
}

// RunFor waits until at least d has passed and returns the simulated time
// counted against the wait. It is Sleep with a result: when nothing in the
// current poll has awaited yet, the instruction that triggered the poll
// already counts, so a task calling RunFor in a loop keeps a steady period.
func (a *AsyncTester) RunFor(d timing.Duration) timing.Duration {
	f := components.NewSleepFuture(d)
	components.Await[struct{}](a.rt, f)

	return f.Slept()
}

// RunForCycles is RunFor expressed in cycles.
func (a *AsyncTester) RunForCycles(n uint64) timing.Duration {
	return a.RunFor(timing.NewDuration(a.d.freq(), n))
}

// RunForMicros is RunFor expressed in microseconds.
func (a *AsyncTester) RunForMicros(n uint64) timing.Duration {
	return a.RunFor(timing.Micros(a.d.freq(), n))
}

// RunForMillis is RunFor expressed in milliseconds.
func (a *AsyncTester) RunForMillis(n uint64) timing.Duration {
	return a.RunFor(timing.Millis(a.d.freq(), n))
}

// RunForSecs is RunFor expressed in seconds.
func (a *AsyncTester) RunForSecs(n uint64) timing.Duration {
	return a.RunFor(timing.Secs(a.d.freq(), n))
}

// Sleep waits until at least d has passed, exactly like RunFor.
func (a *AsyncTester) Sleep(d timing.Duration) {
	a.rt.Sleep(d)
}

// Freq returns the clock the simulator runs at.
func (a *AsyncTester) Freq() timing.Freq {
	return a.d.freq()
}

// Pins gives access to the MCU's digital and analog pins.
func (a *AsyncTester) Pins() *Pins {
	return &Pins{d: a.d}
}

// UART gives access to a UART, identified by its digit ('0' for UART0).
func (a *AsyncTester) UART(id byte) *UART {
	return &UART{d: a.d, id: id}
}

// SPI gives access to an SPI peripheral, identified by its index.
func (a *AsyncTester) SPI(id uint8) *SPI {
	return &SPI{d: a.d, id: id}
}

// TWI gives access to a TWI bus, identified by its index.
func (a *AsyncTester) TWI(id uint8) *TWI {
	return &TWI{d: a.d, id: id}
}
