package tracing

import (
	"sync"

	"github.com/sarchlab/avrtester/idgen"
	"github.com/sarchlab/avrtester/tester"
)

// TotalTimeTracer adds up how long tasks lived, in cycles. If two tasks
// overlap, both lifetimes are added.
type TotalTimeTracer struct {
	filter        TaskFilter
	lock          sync.Mutex
	totalCycles   uint64
	taskCount     uint64
	inflightTasks map[idgen.ID]Task
}

// NewTotalTimeTracer creates a new TotalTimeTracer
func NewTotalTimeTracer(filter TaskFilter) *TotalTimeTracer {
	return &TotalTimeTracer{
		filter:        filter,
		inflightTasks: make(map[idgen.ID]Task),
	}
}

// TotalCycles returns the summed lifetime of finished tasks.
func (t *TotalTimeTracer) TotalCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalCycles
}

// AverageCycles returns the average lifetime of finished tasks.
func (t *TotalTimeTracer) AverageCycles() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return float64(t.totalCycles) / float64(t.taskCount)
}

// StartTask records the task start time
func (t *TotalTimeTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndTask records the end of the task
func (t *TotalTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	original.EndCycle = task.EndCycle
	t.totalCycles += original.Lifetime()
	t.taskCount++

	delete(t.inflightTasks, task.ID)
}

// Step does nothing
func (t *TotalTimeTracer) Step(tester.StepEvent) {}
