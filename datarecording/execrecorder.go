package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

const timeLayout = "2006-01-02 15:04:05.000000000"

// ExecInfo is one property of a recorded run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how a run was started and when it ended.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execTableName, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start notes the start time, the command line, and the working directory.
func (e *ExecRecorder) Start() {
	e.Record("Start Time", time.Now().Format(timeLayout))
	e.Record("Command", strings.Join(os.Args, " "))

	if cwd, err := os.Getwd(); err == nil {
		e.Record("Working Directory", cwd)
	}
}

// Record adds a custom property, such as the scenario being run.
func (e *ExecRecorder) Record(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

// End writes everything noted so far along with the end time.
func (e *ExecRecorder) End() {
	e.Record("End Time", time.Now().Format(timeLayout))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
