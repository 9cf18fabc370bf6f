package tester

import (
	"fmt"

	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

// Pins gives access to the MCU's pins.
type Pins struct {
	d driver
}

// Digital returns a digital pin, e.g. Digital('D', 4) for PD4.
func (p *Pins) Digital(port byte, pin uint8) *DigitalPin {
	return &DigitalPin{d: p.d, port: port, pin: pin}
}

// PB returns pin n of PORTB.
func (p *Pins) PB(n uint8) *DigitalPin {
	return p.Digital('B', n)
}

// PC returns pin n of PORTC.
func (p *Pins) PC(n uint8) *DigitalPin {
	return p.Digital('C', n)
}

// PD returns pin n of PORTD.
func (p *Pins) PD(n uint8) *DigitalPin {
	return p.Digital('D', n)
}

// Analog returns ADC channel n.
func (p *Pins) Analog(n uint8) *AnalogPin {
	return &AnalogPin{d: p.d, pin: n}
}

// DigitalPin is a single digital pin.
type DigitalPin struct {
	d    driver
	port byte
	pin  uint8
}

// Name returns the pin's name, e.g. PC6.
func (p *DigitalPin) Name() string {
	return fmt.Sprintf("P%c%d", p.port, p.pin)
}

// Set drives the pin high or low.
func (p *DigitalPin) Set(high bool) {
	p.d.withSim(func(sim mcu.Simulator) {
		sim.SetDigitalPin(p.port, p.pin, high)
	})
}

// SetHigh drives the pin high.
func (p *DigitalPin) SetHigh() {
	p.Set(true)
}

// SetLow drives the pin low.
func (p *DigitalPin) SetLow() {
	p.Set(false)
}

// Toggle flips the pin.
func (p *DigitalPin) Toggle() {
	p.Set(p.IsLow())
}

// IsHigh reports whether the pin is high.
func (p *DigitalPin) IsHigh() bool {
	var high bool

	p.d.withSim(func(sim mcu.Simulator) {
		high = sim.DigitalPin(p.port, p.pin)
	})

	return high
}

// IsLow reports whether the pin is low.
func (p *DigitalPin) IsLow() bool {
	return !p.IsHigh()
}

// Assert panics unless the pin is at the given level.
func (p *DigitalPin) Assert(high bool) {
	if high {
		p.AssertHigh()
	} else {
		p.AssertLow()
	}
}

// AssertHigh panics unless the pin is high.
func (p *DigitalPin) AssertHigh() {
	if !p.IsHigh() {
		panic(p.Name() + " is not high")
	}
}

// AssertLow panics unless the pin is low.
func (p *DigitalPin) AssertLow() {
	if !p.IsLow() {
		panic(p.Name() + " is not low")
	}
}

// PulseIn waits until the pin changes level and returns how long that took.
func (p *DigitalPin) PulseIn() timing.Duration {
	level := p.IsHigh()

	return p.waitWhile(level, nil)
}

// WaitWhileLow waits until the pin becomes high and returns how long that
// took. It returns immediately if the pin is already high.
func (p *DigitalPin) WaitWhileLow() timing.Duration {
	return p.waitWhile(false, nil)
}

// WaitWhileHigh waits until the pin becomes low and returns how long that
// took. It returns immediately if the pin is already low.
func (p *DigitalPin) WaitWhileHigh() timing.Duration {
	return p.waitWhile(true, nil)
}

// WaitWhileLowTimeout is WaitWhileLow that gives up once timeout has passed.
// The boolean is false if the pin never became high.
func (p *DigitalPin) WaitWhileLowTimeout(
	timeout timing.Duration,
) (timing.Duration, bool) {
	return p.waitWhileTimeout(false, timeout)
}

// WaitWhileHighTimeout is WaitWhileHigh that gives up once timeout has
// passed. The boolean is false if the pin never became low.
func (p *DigitalPin) WaitWhileHighTimeout(
	timeout timing.Duration,
) (timing.Duration, bool) {
	return p.waitWhileTimeout(true, timeout)
}

func (p *DigitalPin) waitWhileTimeout(
	level bool,
	timeout timing.Duration,
) (timing.Duration, bool) {
	timedOut := false

	elapsed := p.waitWhile(level, func(elapsed timing.Duration) bool {
		timedOut = timeout.LessEq(elapsed)
		return timedOut
	})

	return elapsed, !timedOut
}

func (p *DigitalPin) waitWhile(
	level bool,
	giveUp func(elapsed timing.Duration) bool,
) timing.Duration {
	elapsed := timing.Zero(p.d.freq())

	for p.IsHigh() == level {
		if giveUp != nil && giveUp(elapsed) {
			break
		}

		elapsed = elapsed.Add(p.d.step())
	}

	return elapsed
}

// AnalogPin is an ADC channel.
type AnalogPin struct {
	d   driver
	pin uint8
}

// SetMillivolts sets the voltage the ADC sees.
func (p *AnalogPin) SetMillivolts(mv uint32) {
	p.d.withSim(func(sim mcu.Simulator) {
		sim.SetAnalogPin(p.pin, mv)
	})
}
