package tracing

import (
	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/idgen"
)

// A Task is the trace of one scheduled component, from the moment it was
// added until it left the scheduler. Times are cycle counts since the tester
// was built.
type Task struct {
	ID         idgen.ID                  `json:"id"`
	Name       string                    `json:"name"`
	StartCycle uint64                    `json:"start_cycle"`
	EndCycle   uint64                    `json:"end_cycle"`
	Reason     components.EvictionReason `json:"reason,omitempty"`
}

// Lifetime returns how many cycles the task lived.
func (t Task) Lifetime() uint64 {
	return t.EndCycle - t.StartCycle
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// AllTasks is a TaskFilter that accepts everything.
func AllTasks(Task) bool {
	return true
}
