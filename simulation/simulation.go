// Package simulation puts a tester together with the services around it: a
// recording database, tracers, and a monitoring server.
package simulation

import (
	"github.com/sarchlab/avrtester/datarecording"
	"github.com/sarchlab/avrtester/monitoring"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/tracing"
)

// A Simulation is a tester plus the services observing it.
type Simulation struct {
	id     string
	tester *tester.Tester

	stepCounter *tracing.StepCountTracer

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	dbTracer     *tracing.DBTracer
	recordPath   string

	monitor     *monitoring.Monitor
	monitorAddr string

	terminated bool
}

// ID returns the unique id of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Tester returns the tester being driven.
func (s *Simulation) Tester() *tester.Tester {
	return s.tester
}

// StepCounter returns the tracer counting instructions and tasks.
func (s *Simulation) StepCounter() *tracing.StepCountTracer {
	return s.stepCounter
}

// GetDataRecorder returns the data recorder used in the simulation. It is
// nil unless recording is enabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// RecordPath returns the file the simulation records into, if any.
func (s *Simulation) RecordPath() string {
	return s.recordPath
}

// GetDBTracer returns the tracer writing into the data recorder, if any.
func (s *Simulation) GetDBTracer() *tracing.DBTracer {
	return s.dbTracer
}

// GetMonitor returns the monitor used in the simulation, if any.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorAddr returns the address of the monitoring server, if any.
func (s *Simulation) MonitorAddr() string {
	return s.monitorAddr
}

// RecordProperty stores a property of the run, such as the scenario name,
// along with the execution info. It does nothing without recording.
func (s *Simulation) RecordProperty(property, value string) {
	if s.execRecorder == nil {
		return
	}

	s.execRecorder.Record(property, value)
}

// Terminate cancels the tasks still scheduled, writes everything that is
// still buffered and closes the recording. Later calls do nothing.
func (s *Simulation) Terminate() error {
	if s.terminated {
		return nil
	}

	s.terminated = true
	s.tester.Close()

	if s.dataRecorder == nil {
		return nil
	}

	s.dbTracer.Terminate()
	s.execRecorder.End()

	return s.dataRecorder.Close()
}
