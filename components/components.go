// Package components runs test-side tasks in lockstep with a simulated
// microcontroller.
//
// A task is an ordinary function that runs as a coroutine. After each
// instruction the simulator executes, the scheduler polls every live task
// once, in the order the tasks were added. A task runs until it awaits
// something (the next instruction, a sleep, a pin condition) and is picked up
// again on a later pass. Everything happens on the caller's goroutine, one
// task at a time, so runs are deterministic.
package components

import (
	"log"

	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/idgen"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

var (
	// HookPosTaskAdded fires when a task is registered. The item is the
	// task's *Handle.
	HookPosTaskAdded = &hooking.HookPos{Name: "TaskAdded"}

	// HookPosTaskEvicted fires when a task leaves the collection. The item is
	// the task's *Handle and the detail is an EvictionReason.
	HookPosTaskEvicted = &hooking.HookPos{Name: "TaskEvicted"}

	// HookPosPassStart fires before the tasks of a pass are polled. The item
	// is the elapsed timing.Duration that triggered the pass.
	HookPosPassStart = &hooking.HookPos{Name: "PassStart"}

	// HookPosPassEnd fires after every task of a pass has been polled.
	HookPosPassEnd = &hooking.HookPos{Name: "PassEnd"}
)

// EvictionReason tells why a task left the collection.
type EvictionReason string

// Eviction reasons.
const (
	EvictionCompleted  EvictionReason = "completed"
	EvictionRemoved    EvictionReason = "removed"
	EvictionUnfinished EvictionReason = "unfinished"
)

// Components is an ordered collection of tasks together with the runtime
// slot through which they reach the simulator.
type Components struct {
	*hooking.HookableBase

	rt          *Runtime
	ids         idgen.Generator
	controllers []*controller
}

// New creates an empty collection.
func New() *Components {
	return &Components{
		HookableBase: hooking.NewHookableBase(),
		rt:           newRuntime(),
		ids:          idgen.New(),
	}
}

// Add registers a task and returns its handle. The task is first polled on
// the pass after the next instruction executes. Tasks added while a pass is
// running are not polled until the following pass.
func (c *Components) Add(task Task) *Handle {
	return c.AddNamed("", task)
}

// AddNamed is Add with a human-readable name for observers.
func (c *Components) AddNamed(name string, task Task) *Handle {
	if task == nil {
		log.Panic("cannot add a nil task")
	}

	handle := newHandle(c.ids.Generate(), name)
	c.controllers = append(c.controllers, newController(c.rt, handle, task))

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosTaskAdded,
		Item:   handle,
	})

	return handle
}

// Len returns the number of tasks in the collection.
func (c *Components) Len() int {
	return len(c.controllers)
}

// Handles returns the handles of the tasks in the collection, in polling
// order.
func (c *Components) Handles() []*Handle {
	handles := make([]*Handle, 0, len(c.controllers))
	for _, ctrl := range c.controllers {
		handles = append(handles, ctrl.handle)
	}

	return handles
}

// Runtime returns the slot tasks of this collection use. It is mostly useful
// to futures written outside this package.
func (c *Components) Runtime() *Runtime {
	return c.rt
}

// Run performs one scheduling pass. It must be called right after the
// simulator executed an instruction that took elapsed.
//
// The simulator is taken out of *sim for the duration of the pass and put
// back before Run returns, including when a task panics. A panicking task
// propagates its panic to the caller. Evictions reported earlier in that pass
// stand, the panicking task is marked removed, and the tasks after it are
// kept unpolled. An empty collection makes Run a no-op.
func (c *Components) Run(
	sim *mcu.Simulator,
	freq timing.Freq,
	elapsed timing.Duration,
) {
	if len(c.controllers) == 0 {
		return
	}

	if *sim == nil {
		log.Panic("no simulator to hand to the tasks")
	}

	c.rt.setup(*sim, freq, elapsed)
	*sim = nil

	defer func() {
		*sim = c.rt.destroy()
	}()

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosPassStart,
		Item:   elapsed,
	})

	pass := c.controllers
	kept := make([]*controller, 0, len(pass))
	polled := 0

	defer func() {
		if polled == len(pass) {
			return
		}

		pass[polled].handle.Remove()
		c.controllers = append(kept, c.controllers[polled:]...)
	}()

	for _, ctrl := range pass {
		switch ctrl.run(c.rt) {
		case keep:
			kept = append(kept, ctrl)
		case evictCompleted:
			c.evicted(ctrl, EvictionCompleted)
		case evictRemoved:
			c.evicted(ctrl, EvictionRemoved)
		}

		polled++
	}

	c.controllers = append(kept, c.controllers[len(pass):]...)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosPassEnd,
		Item:   elapsed,
	})
}

// Close cancels every task left in the collection and empties it. Suspended
// tasks unwind, running their deferred calls; those calls must not await or
// reach the simulator. Tasks already removed are reported as EvictionRemoved,
// the others as EvictionUnfinished. Close panics during a pass.
func (c *Components) Close() {
	if c.rt.Active() {
		log.Panic("Close() called during a scheduling pass")
	}

	live := c.controllers
	c.controllers = nil

	for _, ctrl := range live {
		reason := EvictionUnfinished
		if ctrl.handle.State() == Removed {
			reason = EvictionRemoved
		}

		ctrl.handle.Remove()
		ctrl.stop()
		c.evicted(ctrl, reason)
	}
}

func (c *Components) evicted(ctrl *controller, reason EvictionReason) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosTaskEvicted,
		Item:   ctrl.handle,
		Detail: reason,
	})
}
