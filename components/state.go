package components

import (
	"fmt"
	"sync/atomic"

	"github.com/sarchlab/avrtester/idgen"
)

// State is the lifecycle state of a task.
type State int32

// Task states.
const (
	// Working tasks are polled on every pass.
	Working State = iota

	// Paused tasks are kept but skipped until resumed.
	Paused

	// Removed tasks are evicted on the next pass and never run again. Tasks
	// that finish on their own end up in this state too.
	Removed
)

func (s State) String() string {
	switch s {
	case Working:
		return "Working"
	case Paused:
		return "Paused"
	case Removed:
		return "Removed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Handle is the outside view of a registered task. It shares a single state
// flag with the scheduler; flipping it takes effect the next time the
// scheduler would poll the task.
//
// The flag is atomic so that observers on other goroutines, such as the
// monitoring server, may read and flip it while the tester runs.
type Handle struct {
	id    idgen.ID
	name  string
	state atomic.Int32
}

func newHandle(id idgen.ID, name string) *Handle {
	if name == "" {
		name = "task-" + id.String()
	}

	return &Handle{id: id, name: name}
}

// ID returns the identifier the scheduler assigned to the task.
func (h *Handle) ID() idgen.ID {
	return h.id
}

// Name returns the name the task was registered with.
func (h *Handle) Name() string {
	return h.name
}

// State returns the task's current state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Pause stops the task from being polled until Resume is called. A task that
// is in the middle of a poll finishes that poll.
func (h *Handle) Pause() {
	h.state.CompareAndSwap(int32(Working), int32(Paused))
}

// Resume lets a paused task continue where it left off.
func (h *Handle) Resume() {
	h.state.CompareAndSwap(int32(Paused), int32(Working))
}

// Remove cancels the task. The scheduler drops it on its next pass, whatever
// the task is waiting for. Removal is final.
func (h *Handle) Remove() {
	h.state.Store(int32(Removed))
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s(%s)", h.name, h.State())
}
