package scenarios

import (
	"slices"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

var spiMagic = []byte{0xCA, 0xFE, 0xBA, 0xBE}

func init() {
	register(Scenario{
		Name: "spi-catcher",
		Description: "firmware sends counters over SPI0 while PD0 is high " +
			"and 0xCAFEBABE while it is low; two components split the stream",
		Clock:    16 * timing.MHz,
		Cycles:   150,
		Firmware: SPIFirmware,
		Setup:    setupSPICatcher,
	})
}

// SPIFirmware raises PD0 and sends 0, 1, 2, 3 over SPI0, then lowers PD0
// and sends fourteen bytes of 0xCAFEBABE repeated. A byte is sent every
// other step and every step takes three cycles.
func SPIFirmware() virtual.Program {
	var script []func(m *virtual.Machine)

	send := func(b byte) {
		script = append(script,
			func(m *virtual.Machine) { m.TransmitSPI(0, b) },
			func(*virtual.Machine) {})
	}

	script = append(script, func(m *virtual.Machine) { m.Drive('D', 0, true) })

	for i := byte(0); i < 4; i++ {
		send(i)
	}

	script = append(script, func(m *virtual.Machine) { m.Drive('D', 0, false) })

	for i := 0; i < 14; i++ {
		send(spiMagic[i%len(spiMagic)])
	}

	next := 0

	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		if next < len(script) {
			script[next](m)
			next++
		}

		return 3, mcu.Running
	})
}

// SPICatcher returns a task that, on every step PD0 is at level, moves the
// bytes waiting on SPI0 into numbers.
func SPICatcher(level bool, numbers *[]byte) components.Task {
	return func(rt *components.Runtime) {
		avr := tester.Async(rt)

		for {
			if avr.Pins().PD(0).IsHigh() == level {
				*numbers = append(*numbers, avr.SPI(0).ReadAll()...)
			}

			avr.Run()
		}
	}
}

func setupSPICatcher(t *tester.Tester) Check {
	var high, low []byte

	t.Components().AddNamed("spi-high", SPICatcher(true, &high))
	t.Components().AddNamed("spi-low", SPICatcher(false, &low))

	return func() error {
		if want := []byte{0, 1, 2, 3}; !slices.Equal(high, want) {
			return mismatch("bytes while PD0 was high", high, want)
		}

		var want []byte
		for i := 0; i < 14; i++ {
			want = append(want, spiMagic[i%len(spiMagic)])
		}

		if !slices.Equal(low, want) {
			return mismatch("bytes while PD0 was low", low, want)
		}

		return nil
	}
}
