package virtual

import "github.com/sarchlab/avrtester/mcu"

// A Program models the firmware of a virtual machine. Execute is called once
// per step and returns the number of cycles the step took and the state the
// machine is in afterwards.
type Program interface {
	Execute(m *Machine) (cycles uint64, state mcu.State)
}

// ProgramFunc adapts an ordinary function to the Program interface.
type ProgramFunc func(m *Machine) (uint64, mcu.State)

// Execute calls f(m).
func (f ProgramFunc) Execute(m *Machine) (uint64, mcu.State) {
	return f(m)
}

// Idle returns a program that does nothing but burn the given number of
// cycles on every step.
func Idle(cycles uint64) Program {
	return ProgramFunc(func(*Machine) (uint64, mcu.State) {
		return cycles, mcu.Running
	})
}

// Cycles returns a program whose steps take the given costs in turn, starting
// over once the list is exhausted.
func Cycles(costs ...uint64) Program {
	if len(costs) == 0 {
		return Idle(1)
	}

	next := 0

	return ProgramFunc(func(*Machine) (uint64, mcu.State) {
		cost := costs[next]
		next = (next + 1) % len(costs)

		return cost, mcu.Running
	})
}

// Halt wraps a program so that, from step number after onwards (counting from
// one), the machine reports the given state instead of the program's own.
func Halt(p Program, after uint64, state mcu.State) Program {
	return ProgramFunc(func(m *Machine) (uint64, mcu.State) {
		cycles, own := p.Execute(m)

		if m.Steps()+1 >= after {
			return cycles, state
		}

		return cycles, own
	})
}
