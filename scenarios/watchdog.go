package scenarios

import (
	"slices"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

func init() {
	register(Scenario{
		Name: "watchdog",
		Description: "two components toggle PB0 every 5 cycles and PB1 " +
			"every 15 cycles on an idle MCU",
		Clock:    16 * timing.MHz,
		Cycles:   20,
		Firmware: func() virtual.Program { return virtual.Idle(1) },
		Setup:    setupWatchdog,
	})
}

// Toggler returns a task that toggles PB<pin> every period cycles and
// appends the time of each toggle, in cycles, to toggles.
func Toggler(
	t *tester.Tester,
	pin uint8,
	period uint64,
	toggles *[]uint64,
) components.Task {
	return func(rt *components.Runtime) {
		avr := tester.Async(rt)

		for {
			avr.Sleep(timing.NewDuration(avr.Freq(), period))
			avr.Pins().PB(pin).Toggle()

			*toggles = append(*toggles, t.Now().AsCycles())
		}
	}
}

func setupWatchdog(t *tester.Tester) Check {
	var fast, slow []uint64

	t.Components().AddNamed("toggler-pb0",
		Toggler(t, 0, 5, &fast))
	t.Components().AddNamed("toggler-pb1",
		Toggler(t, 1, 15, &slow))

	return func() error {
		if want := []uint64{5, 10, 15, 20}; !slices.Equal(fast, want) {
			return mismatch("PB0 toggles", fast, want)
		}

		if want := []uint64{15}; !slices.Equal(slow, want) {
			return mismatch("PB1 toggles", slow, want)
		}

		return nil
	}
}
