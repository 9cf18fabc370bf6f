package components

import "github.com/sarchlab/avrtester/timing"

// A Future is a value a task can wait for. Poll is called once per pass while
// the task waits; it returns the value and true when ready.
//
// Futures are polled only from inside a task, so Poll may always use
// rt.With.
type Future[T any] interface {
	Poll(rt *Runtime) (T, bool)
}

// Await suspends the calling task until f is ready and returns its value. It
// panics when called from outside a task body.
func Await[T any](rt *Runtime, f Future[T]) T {
	task := rt.currentTask()

	for {
		if v, ok := f.Poll(rt); ok {
			return v
		}

		task.suspend()
	}
}

// ResumeFuture gives control back to the scheduler exactly once. When the
// task is polled again, the future completes with the duration of the
// instruction that ran in between.
type ResumeFuture struct {
	yielded bool
}

// NewResumeFuture creates a future that suspends once.
func NewResumeFuture() *ResumeFuture {
	return &ResumeFuture{}
}

// Poll implements Future.
func (f *ResumeFuture) Poll(rt *Runtime) (timing.Duration, bool) {
	if !f.yielded {
		f.yielded = true
		return timing.Duration{}, false
	}

	var elapsed timing.Duration

	rt.With(func(ctx *PassContext) {
		elapsed = ctx.Consume()
	})

	return elapsed, true
}

// SleepFuture completes once the simulated clock has advanced by at least the
// requested duration. A zero duration completes without suspending and
// leaves the pass's elapsed time to later awaits.
type SleepFuture struct {
	remaining timing.Duration
	slept     timing.Duration
}

// NewSleepFuture creates a future that waits for d.
func NewSleepFuture(d timing.Duration) *SleepFuture {
	return &SleepFuture{remaining: d, slept: timing.Zero(d.Freq())}
}

// Remaining returns how much of the sleep is left.
func (f *SleepFuture) Remaining() timing.Duration {
	return f.remaining
}

// Slept returns how much simulated time was counted against the sleep. It
// can exceed the requested duration by part of an instruction.
func (f *SleepFuture) Slept() timing.Duration {
	return f.slept
}

// Poll implements Future.
func (f *SleepFuture) Poll(rt *Runtime) (struct{}, bool) {
	rt.With(func(ctx *PassContext) {
		if f.remaining.Freq() == 0 {
			f.remaining = timing.NewDuration(ctx.Freq(), f.remaining.AsCycles())
			f.slept = timing.Zero(ctx.Freq())
		}

		if f.remaining.IsZero() {
			return
		}

		consumed := ctx.Consume()
		f.slept = f.slept.Add(consumed)
		f.remaining = f.remaining.Sub(consumed)
	})

	return struct{}{}, f.remaining.IsZero()
}

// Step suspends the task for exactly one instruction and returns how long
// that instruction took.
func (rt *Runtime) Step() timing.Duration {
	return Await[timing.Duration](rt, NewResumeFuture())
}

// Sleep suspends the task until at least d has passed on the simulated
// clock.
func (rt *Runtime) Sleep(d timing.Duration) {
	Await[struct{}](rt, NewSleepFuture(d))
}

// Wait suspends the task until cond returns true. The condition is checked
// right away and then once per pass.
func (rt *Runtime) Wait(cond func(ctx *PassContext) bool) {
	Await[struct{}](rt, conditionFuture(cond))
}

type conditionFuture func(ctx *PassContext) bool

func (f conditionFuture) Poll(rt *Runtime) (struct{}, bool) {
	ready := false

	rt.With(func(ctx *PassContext) {
		ctx.Consume()
		ready = f(ctx)
	})

	return struct{}{}, ready
}
