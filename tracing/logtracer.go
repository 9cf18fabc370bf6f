package tracing

import (
	"log"

	"github.com/sarchlab/avrtester/tester"
)

// LogTracer writes one line per traced event.
type LogTracer struct {
	*log.Logger

	logSteps bool
}

// NewLogTracer creates a LogTracer that writes to logger. Per-instruction
// lines are only written when logSteps is set.
func NewLogTracer(logger *log.Logger, logSteps bool) *LogTracer {
	return &LogTracer{Logger: logger, logSteps: logSteps}
}

// StartTask logs the task.
func (t *LogTracer) StartTask(task Task) {
	t.Printf("[%d] task %s (%s) added", task.StartCycle, task.Name, task.ID)
}

// EndTask logs the task.
func (t *LogTracer) EndTask(task Task) {
	t.Printf("[%d] task %s (%s) %s", task.EndCycle, task.Name, task.ID,
		task.Reason)
}

// Step logs the instruction.
func (t *LogTracer) Step(event tester.StepEvent) {
	if !t.logSteps {
		return
	}

	t.Printf("[%d] step %d took %d cycles, MCU %s",
		event.Now.AsCycles(), event.Step,
		event.Outcome.Elapsed.AsCycles(), event.Outcome.State)
}
