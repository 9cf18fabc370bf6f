package scenarios

import (
	"slices"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

// ShiftRegisterMagic is the number the shift register firmware sends.
const ShiftRegisterMagic = 0xCAFEBABE

func init() {
	register(Scenario{
		Name: "shift-register",
		Description: "firmware shifts 0xCAFEBABE out with PB0 as latch and " +
			"PB1 as data; a component decodes it",
		Clock:  16 * timing.MHz,
		Cycles: 400,
		Firmware: func() virtual.Program {
			return ShiftRegisterFirmware(ShiftRegisterMagic)
		},
		Setup: setupShiftRegister,
	})
}

// ShiftRegisterFirmware sends value out one bit at a time, most significant
// byte first and least significant bit of each byte first. For every bit it
// sets PB1, raises PB0, holds it for a step and lowers it again. Every step
// takes two cycles.
func ShiftRegisterFirmware(value uint32) virtual.Program {
	bit, phase := 0, 0

	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		if bit == 32 {
			return 2, mcu.Running
		}

		switch phase {
		case 0:
			b := byte(value >> (24 - 8*(bit/8)))
			m.Drive('B', 1, b>>(bit%8)&1 == 1)
		case 1:
			m.Drive('B', 0, true)
		case 3:
			m.Drive('B', 0, false)
			bit++
		}

		phase = (phase + 1) % 4

		return 2, mcu.Running
	})
}

// ShiftRegisterReader returns a task that samples PB1 whenever PB0 goes high
// and appends every complete byte to numbers.
func ShiftRegisterReader(numbers *[]byte) components.Task {
	return func(rt *components.Runtime) {
		avr := tester.Async(rt)
		latch := avr.Pins().PB(0)
		data := avr.Pins().PB(1)

		var acc byte

		n := 0

		for {
			if !latch.IsHigh() {
				avr.Run()
				continue
			}

			if data.IsHigh() {
				acc |= 1 << n
			}

			n++
			if n == 8 {
				*numbers = append(*numbers, acc)
				acc, n = 0, 0
			}

			latch.WaitWhileHigh()
		}
	}
}

func setupShiftRegister(t *tester.Tester) Check {
	var numbers []byte

	t.Components().AddNamed("shift-register", ShiftRegisterReader(&numbers))

	return func() error {
		want := []byte{0xCA, 0xFE, 0xBA, 0xBE}
		if !slices.Equal(numbers, want) {
			return mismatch("shifted bytes", numbers, want)
		}

		return nil
	}
}
