// Package mcu defines the contract between the tester and a simulated
// microcontroller.
//
// The tester only needs to advance the machine by one instruction at a time
// and to poke at a handful of peripherals. Anything that can do that, a
// binding to a real instruction-level simulator or the deterministic
// mcu/virtual machine, satisfies Simulator.
package mcu

import (
	"fmt"

	"github.com/sarchlab/avrtester/timing"
)

// State is the state the machine reports after executing an instruction.
type State int

// States a simulated machine can report.
const (
	Limbo State = iota
	Stopped
	Running
	Sleeping
	Step
	StepDone
	Done
	Crashed
)

var stateNames = [...]string{
	Limbo:    "Limbo",
	Stopped:  "Stopped",
	Running:  "Running",
	Sleeping: "Sleeping",
	Step:     "Step",
	StepDone: "StepDone",
	Done:     "Done",
	Crashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// StepOutcome describes the result of executing a single instruction.
type StepOutcome struct {
	State   State
	Elapsed timing.Duration
}

// Simulator is a microcontroller that can be stepped one instruction at a
// time.
//
// Ports are identified by their letter ('B' for PORTB) and pins by their bit
// number. UARTs are identified by their digit ('0' for UART0), SPIs and TWIs
// by their index.
type Simulator interface {
	// Freq returns the clock the simulated core runs at.
	Freq() timing.Freq

	// Step executes one instruction and reports how long it took.
	Step() StepOutcome

	// DigitalPin reports whether the given pin is driven high.
	DigitalPin(port byte, pin uint8) bool

	// SetDigitalPin drives the given pin from the outside.
	SetDigitalPin(port byte, pin uint8, high bool)

	// SetAnalogPin injects a voltage, in millivolts, into an ADC channel.
	SetAnalogPin(pin uint8, millivolts uint32)

	// ReadUART pops a byte transmitted by the firmware, if there is one.
	ReadUART(id byte) (byte, bool)

	// WriteUART queues a byte for the firmware to receive.
	WriteUART(id byte, b byte)

	// ReadSPI pops a byte transmitted by the firmware, if there is one.
	ReadSPI(id uint8) (byte, bool)

	// WriteSPI queues a byte for the firmware to receive.
	WriteSPI(id uint8, b byte)

	// TWISlave returns the device answering on a TWI, or nil.
	TWISlave(id uint8) TWISlave

	// SetTWISlave puts the device that answers the firmware on a TWI. A nil
	// slave leaves the bus unanswered.
	SetTWISlave(id uint8, slave TWISlave)
}
