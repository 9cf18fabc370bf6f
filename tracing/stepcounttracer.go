package tracing

import (
	"sync"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/tester"
)

// StepCountTracer counts instructions, cycles, and components.
type StepCountTracer struct {
	filter TaskFilter
	lock   sync.Mutex

	steps      uint64
	cycles     uint64
	stateNames []string
	stateCount map[string]uint64

	started uint64
	ended   map[components.EvictionReason]uint64
}

// NewStepCountTracer creates a new StepCountTracer. Only tasks accepted by
// filter are counted.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter:     filter,
		stateCount: make(map[string]uint64),
		ended:      make(map[components.EvictionReason]uint64),
	}
}

// Steps returns the number of instructions executed.
func (t *StepCountTracer) Steps() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.steps
}

// Cycles returns the number of cycles executed.
func (t *StepCountTracer) Cycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.cycles
}

// StateNames returns the MCU states seen so far, in order of appearance.
func (t *StepCountTracer) StateNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stateNames...)
}

// StateCount returns how many instructions left the MCU in the named state.
func (t *StepCountTracer) StateCount(state string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stateCount[state]
}

// TasksStarted returns the number of tasks added.
func (t *StepCountTracer) TasksStarted() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.started
}

// TasksEnded returns the number of tasks that left for the given reason.
func (t *StepCountTracer) TasksEnded(reason components.EvictionReason) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.ended[reason]
}

// StartTask counts the task.
func (t *StepCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.started++
	t.lock.Unlock()
}

// EndTask counts the task by the reason it ended.
func (t *StepCountTracer) EndTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.ended[task.Reason]++
	t.lock.Unlock()
}

// Step counts the instruction.
func (t *StepCountTracer) Step(event tester.StepEvent) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.steps++
	t.cycles += event.Outcome.Elapsed.AsCycles()

	state := event.Outcome.State.String()
	if _, ok := t.stateCount[state]; !ok {
		t.stateNames = append(t.stateNames, state)
	}
	t.stateCount[state]++
}
