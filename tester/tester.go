// Package tester drives a simulated MCU one instruction at a time and gives
// tests a convenient view of its peripherals.
//
// Code that runs on the test's own goroutine uses a Tester directly. Code
// that runs as a scheduled task uses Async(rt) instead; the simulator belongs
// to the scheduler while tasks run.
package tester

import (
	"log"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

var (
	// HookPosBeforeStep fires before the simulator executes an instruction.
	// The item is a StepEvent with a zero Outcome.
	HookPosBeforeStep = &hooking.HookPos{Name: "BeforeStep"}

	// HookPosAfterStep fires once the instruction executed and the tasks were
	// polled. The item is a StepEvent.
	HookPosAfterStep = &hooking.HookPos{Name: "AfterStep"}
)

// StepEvent describes one step of the simulator.
type StepEvent struct {
	// Step counts the steps executed so far, including this one for
	// HookPosAfterStep.
	Step uint64

	// Outcome is what the simulator reported.
	Outcome mcu.StepOutcome

	// Now is the total simulated time.
	Now timing.Duration
}

// Tester drives a simulator.
type Tester struct {
	*hooking.HookableBase

	sim   mcu.Simulator
	freq  timing.Freq
	comps *components.Components

	allowSleep bool

	steps uint64
	now   timing.Duration

	hasBudget bool
	budget    timing.Duration
	remaining timing.Duration
}

// Components returns the tasks scheduled alongside the simulator.
func (t *Tester) Components() *components.Components {
	return t.comps
}

// Freq returns the clock the simulator runs at.
func (t *Tester) Freq() timing.Freq {
	return t.freq
}

// Now returns the simulated time elapsed since the tester was built.
func (t *Tester) Now() timing.Duration {
	return t.now
}

// Steps returns how many instructions have been executed.
func (t *Tester) Steps() uint64 {
	return t.steps
}

// Remaining returns what is left of the timeout budget. The second value is
// false when the tester has no timeout.
func (t *Tester) Remaining() (timing.Duration, bool) {
	return t.remaining, t.hasBudget
}

// Simulator returns the simulator being driven. It panics while tasks hold
// it.
func (t *Tester) Simulator() mcu.Simulator {
	if t.sim == nil {
		log.Panic("the simulator is held by the scheduler; " +
			"use tester.Async inside tasks")
	}

	return t.sim
}

// Run executes a single instruction, lets every task react to it, and
// returns how long the instruction took.
//
// Run panics with a *StateError if the MCU stops running, and with a
// *TimeoutError once the timeout budget is used up.
func (t *Tester) Run() timing.Duration {
	sim := t.Simulator()

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    HookPosBeforeStep,
		Item:   StepEvent{Step: t.steps, Now: t.now},
	})

	outcome := sim.Step()
	t.steps++
	t.now = t.now.Add(outcome.Elapsed)

	t.stateMustBeAccepted(outcome.State)
	t.charge(outcome.Elapsed)

	t.comps.Run(&t.sim, t.freq, outcome.Elapsed)

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    HookPosAfterStep,
		Item: StepEvent{
			Step:    t.steps,
			Outcome: outcome,
			Now:     t.now,
		},
	})

	return outcome.Elapsed
}

func (t *Tester) stateMustBeAccepted(state mcu.State) {
	switch state {
	case mcu.Running:
		return
	case mcu.Sleeping:
		if t.allowSleep {
			return
		}
	}

	panic(&StateError{State: state, Step: t.steps})
}

func (t *Tester) charge(elapsed timing.Duration) {
	if !t.hasBudget {
		return
	}

	t.remaining = t.remaining.Sub(elapsed)
	if t.remaining.IsZero() {
		panic(&TimeoutError{Budget: t.budget, Steps: t.steps})
	}
}

// RunFor runs instructions until at least d has passed and returns the
// simulated time that actually passed.
func (t *Tester) RunFor(d timing.Duration) timing.Duration {
	elapsed := timing.Zero(t.freq)

	for elapsed.Less(d) {
		elapsed = elapsed.Add(t.Run())
	}

	return elapsed
}

// RunForCycles is RunFor expressed in cycles.
func (t *Tester) RunForCycles(n uint64) timing.Duration {
	return t.RunFor(timing.NewDuration(t.freq, n))
}

// RunForMicros is RunFor expressed in microseconds.
func (t *Tester) RunForMicros(n uint64) timing.Duration {
	return t.RunFor(timing.Micros(t.freq, n))
}

// RunForMillis is RunFor expressed in milliseconds.
func (t *Tester) RunForMillis(n uint64) timing.Duration {
	return t.RunFor(timing.Millis(t.freq, n))
}

// RunForSecs is RunFor expressed in seconds.
func (t *Tester) RunForSecs(n uint64) timing.Duration {
	return t.RunFor(timing.Secs(t.freq, n))
}

// Close cancels the tasks still scheduled so that their coroutines do not
// outlive the tester. The simulator stays usable.
func (t *Tester) Close() {
	t.comps.Close()
}

// Pins gives access to the MCU's digital and analog pins.
func (t *Tester) Pins() *Pins {
	return &Pins{d: syncDriver{t}}
}

// UART gives access to a UART, identified by its digit ('0' for UART0).
func (t *Tester) UART(id byte) *UART {
	return &UART{d: syncDriver{t}, id: id}
}

// SPI gives access to an SPI peripheral, identified by its index.
func (t *Tester) SPI(id uint8) *SPI {
	return &SPI{d: syncDriver{t}, id: id}
}

// TWI gives access to a TWI bus, identified by its index.
func (t *Tester) TWI(id uint8) *TWI {
	return &TWI{d: syncDriver{t}, id: id}
}
