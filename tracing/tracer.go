// Package tracing collects what happens during a run: instructions executed
// by the MCU and the life of scheduled components.
package tracing

import "github.com/sarchlab/avrtester/tester"

// A Tracer can collect traces from a tester.
type Tracer interface {
	// StartTask is called when a component is added. StartCycle is set.
	StartTask(task Task)

	// EndTask is called when a component leaves the scheduler. StartCycle is
	// not set; tracers that need it remember it from StartTask.
	EndTask(task Task)

	// Step is called after every instruction.
	Step(event tester.StepEvent)
}
