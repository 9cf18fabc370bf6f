package components

import (
	"errors"
	"iter"
)

// Task is the body of a component. It runs as a coroutine: every await gives
// control back to the scheduler, which picks the task up again on a later
// pass. Returning from the body finishes the task.
type Task func(rt *Runtime)

var errTaskRemoved = errors.New("task removed")

type verdict int

const (
	keep verdict = iota
	evictCompleted
	evictRemoved
)

// controller drives one task. The body runs on a coroutine created by
// iter.Pull, so each call to next runs the body until its next suspension
// point and hands control back.
type controller struct {
	handle *Handle

	next  func() (struct{}, bool)
	stop  func()
	yield func(struct{}) bool
}

func newController(rt *Runtime, handle *Handle, task Task) *controller {
	c := &controller{handle: handle}

	c.next, c.stop = iter.Pull(func(yield func(struct{}) bool) {
		c.yield = yield

		defer recoverRemoval()

		task(rt)
	})

	return c
}

// recoverRemoval swallows the unwinding started by suspend when the task is
// cancelled. Everything else keeps propagating.
func recoverRemoval() {
	r := recover()
	if r == nil {
		return
	}

	if err, ok := r.(error); ok && errors.Is(err, errTaskRemoved) {
		return
	}

	panic(r)
}

// suspend hands control back to the scheduler. It returns when the task is
// polled again. If the task is cancelled instead, the body unwinds, running
// its deferred calls.
func (c *controller) suspend() {
	if !c.yield(struct{}{}) {
		panic(errTaskRemoved)
	}
}

// run polls the task once, unless the handle says otherwise.
func (c *controller) run(rt *Runtime) verdict {
	switch c.handle.State() {
	case Paused:
		return keep
	case Removed:
		c.stop()
		return evictRemoved
	}

	rt.enter(c)
	defer rt.leave()

	if _, suspended := c.next(); suspended {
		return keep
	}

	c.handle.state.Store(int32(Removed))

	return evictCompleted
}
