// Package scenarios bundles firmware for the virtual MCU together with the
// components that exercise it. Each scenario checks its own outcome.
package scenarios

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

// ErrUnexpectedResult is returned by a Check when the components observed
// something other than what the firmware is known to produce.
var ErrUnexpectedResult = errors.New("unexpected result")

// A Check verifies the outcome of a scenario once the tester has run.
type Check func() error

// A Scenario is a firmware plus the components that talk to it.
type Scenario struct {
	Name        string
	Description string

	// Clock is the frequency the scenario is meant to run at. The firmware
	// counts cycles, so any clock works.
	Clock timing.Freq

	// Cycles is how long the scenario runs by default.
	Cycles uint64

	// Firmware returns a fresh copy of the program.
	Firmware func() virtual.Program

	// Setup registers the components on the tester.
	Setup func(t *tester.Tester) Check
}

// Machine returns a virtual MCU running the scenario's firmware.
func (s Scenario) Machine(clock timing.Freq) *virtual.Machine {
	if clock == 0 {
		clock = s.Clock
	}

	return virtual.New(clock, s.Firmware())
}

// Run sets the scenario up on t, runs it for its default length, and checks
// the outcome.
func (s Scenario) Run(t *tester.Tester) error {
	check := s.Setup(t)
	t.RunForCycles(s.Cycles)

	return check()
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	if _, ok := registry[s.Name]; ok {
		panic(fmt.Sprintf("scenario %s registered twice", s.Name))
	}

	registry[s.Name] = s
}

// All returns every scenario, sorted by name.
func All() []Scenario {
	all := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		all = append(all, s)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all
}

// Find returns the scenario with the given name.
func Find(name string) (Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q", name)
	}

	return s, nil
}

func mismatch(what string, got, want any) error {
	return fmt.Errorf("%w: %s: got %v, want %v",
		ErrUnexpectedResult, what, got, want)
}
