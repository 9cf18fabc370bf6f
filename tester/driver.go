package tester

import (
	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

// driver is how peripheral accessors reach the simulator and advance time.
// The same accessors work from the test goroutine, where advancing time means
// stepping the simulator, and from tasks, where it means awaiting the next
// instruction.
type driver interface {
	withSim(f func(sim mcu.Simulator))
	step() timing.Duration
	freq() timing.Freq
}

type syncDriver struct {
	t *Tester
}

func (d syncDriver) withSim(f func(sim mcu.Simulator)) {
	f(d.t.Simulator())
}

func (d syncDriver) step() timing.Duration {
	return d.t.Run()
}

func (d syncDriver) freq() timing.Freq {
	return d.t.freq
}

type asyncDriver struct {
	rt *components.Runtime
}

func (d asyncDriver) withSim(f func(sim mcu.Simulator)) {
	d.rt.With(func(ctx *components.PassContext) {
		f(ctx.Sim())
	})
}

func (d asyncDriver) step() timing.Duration {
	return d.rt.Step()
}

func (d asyncDriver) freq() timing.Freq {
	var freq timing.Freq

	d.rt.With(func(ctx *components.PassContext) {
		freq = ctx.Freq()
	})

	return freq
}
