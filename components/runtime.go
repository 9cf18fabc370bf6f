package components

import (
	"log"

	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

// PassContext is what a task can reach while the scheduler is polling it: the
// simulator, its clock, and the time taken by the instruction that triggered
// the current pass.
type PassContext struct {
	sim        mcu.Simulator
	freq       timing.Freq
	elapsed    timing.Duration
	unconsumed timing.Duration
}

// Sim returns the simulator. The context owns it for the duration of the
// pass; do not keep the reference around after With returns.
func (c *PassContext) Sim() mcu.Simulator {
	return c.sim
}

// Freq returns the clock frequency of the simulator.
func (c *PassContext) Freq() timing.Freq {
	return c.freq
}

// Elapsed returns the duration of the instruction that triggered this pass.
func (c *PassContext) Elapsed() timing.Duration {
	return c.elapsed
}

// Consume returns the part of this pass's elapsed duration that the task
// being polled has not accounted for yet, and marks it as accounted for.
//
// Each task gets the full elapsed duration of a pass exactly once, no matter
// how many awaits it chains within a single poll. A sleep that starts right
// after another one finished therefore does not count the same instruction
// twice.
func (c *PassContext) Consume() timing.Duration {
	d := c.unconsumed
	c.unconsumed = timing.Zero(c.freq)

	return d
}

// Runtime is the slot through which tasks reach the PassContext. The scheduler
// installs a PassContext into the slot for exactly one pass and takes it out
// afterwards. Using the slot at any other time panics.
type Runtime struct {
	ctx     *PassContext
	current *controller
}

func newRuntime() *Runtime {
	return &Runtime{}
}

func (rt *Runtime) setup(
	sim mcu.Simulator,
	freq timing.Freq,
	elapsed timing.Duration,
) {
	if rt.ctx != nil {
		log.Panic("setup() called while a pass is already in progress")
	}

	rt.ctx = &PassContext{
		sim:        sim,
		freq:       freq,
		elapsed:    elapsed,
		unconsumed: elapsed,
	}
}

func (rt *Runtime) destroy() mcu.Simulator {
	if rt.ctx == nil {
		log.Panic("destroy() called outside of a scheduling pass")
	}

	sim := rt.ctx.sim
	rt.ctx = nil
	rt.current = nil

	return sim
}

// Active reports whether a pass is in progress.
func (rt *Runtime) Active() bool {
	return rt.ctx != nil
}

// With calls f with the current pass's PassContext. It panics when no pass is in
// progress, which means a task escaped the scheduler.
func (rt *Runtime) With(f func(ctx *PassContext)) {
	if rt.ctx == nil {
		log.Panic("With() called outside of a scheduling pass")
	}

	f(rt.ctx)
}

func (rt *Runtime) enter(c *controller) {
	rt.current = c
	rt.ctx.unconsumed = rt.ctx.elapsed
}

func (rt *Runtime) leave() {
	rt.current = nil
}

func (rt *Runtime) currentTask() *controller {
	if rt.current == nil {
		log.Panic("await called outside of a task")
	}

	return rt.current
}
