package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/datarecording"
	"github.com/sarchlab/avrtester/idgen"
	"github.com/sarchlab/avrtester/tester"
)

// Table names used by DBTracer.
const (
	StepTable = "step"
	TaskTable = "task"
)

// ReasonUnfinished marks tasks still scheduled when the tracer terminates.
const ReasonUnfinished = string(components.EvictionUnfinished)

// StepEntry is a row of the step table.
type StepEntry struct {
	Step   uint64
	Cycles uint64
	Now    uint64
	State  string
}

// TaskEntry is a row of the task table.
type TaskEntry struct {
	ID         string
	Name       string
	StartCycle uint64
	EndCycle   uint64
	Reason     string
}

// DBTracer is a tracer that stores tasks and, optionally, every instruction
// into a DataRecorder.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder

	recordSteps bool
	startCycle  uint64
	endCycle    uint64
	lastCycle   uint64

	tracingTasks map[idgen.ID]Task
	terminated   bool
}

// NewDBTracer creates a new DBTracer. Per-instruction rows are only written
// when recordSteps is set.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	recordSteps bool,
) *DBTracer {
	dataRecorder.CreateTable(TaskTable, TaskEntry{})

	if recordSteps {
		dataRecorder.CreateTable(StepTable, StepEntry{})
	}

	t := &DBTracer{
		backend:      dataRecorder,
		recordSteps:  recordSteps,
		tracingTasks: make(map[idgen.ID]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange limits tracing to the given window, in cycles. An end of zero
// means no end.
func (t *DBTracer) SetTimeRange(startCycle, endCycle uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startCycle = startCycle
	t.endCycle = endCycle
}

func (t *DBTracer) inRange(cycle uint64) bool {
	if cycle < t.startCycle {
		return false
	}

	return t.endCycle == 0 || cycle <= t.endCycle
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated || (t.endCycle > 0 && task.StartCycle > t.endCycle) {
		return
	}

	t.tracingTasks[task.ID] = task
}

// EndTask writes the finished task.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	if task.EndCycle < t.startCycle {
		return
	}

	original.EndCycle = task.EndCycle
	t.writeTask(original, string(task.Reason))
}

// Step writes the instruction if steps are recorded.
func (t *DBTracer) Step(event tester.StepEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := event.Now.AsCycles()
	t.lastCycle = now

	if !t.recordSteps || !t.inRange(now) {
		return
	}

	t.backend.InsertData(StepTable, StepEntry{
		Step:   event.Step,
		Cycles: event.Outcome.Elapsed.AsCycles(),
		Now:    now,
		State:  event.Outcome.State.String(),
	})
}

func (t *DBTracer) writeTask(task Task, reason string) {
	t.backend.InsertData(TaskTable, TaskEntry{
		ID:         task.ID.String(),
		Name:       task.Name,
		StartCycle: task.StartCycle,
		EndCycle:   task.EndCycle,
		Reason:     reason,
	})
}

// Terminate writes the tasks that are still running and flushes the
// recorder. Later calls do nothing.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated {
		return
	}

	t.terminated = true

	for _, task := range t.tracingTasks {
		task.EndCycle = t.lastCycle
		t.writeTask(task, ReasonUnfinished)
	}

	t.tracingTasks = nil
	t.backend.Flush()
}
