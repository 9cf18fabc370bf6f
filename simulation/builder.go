package simulation

import (
	"fmt"
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/avrtester/datarecording"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/monitoring"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	testerBuilder tester.Builder

	monitorOn   bool
	monitorPort int

	recordOn       bool
	recordSteps    bool
	pureGo         bool
	outputFileName string

	logger   *log.Logger
	logSteps bool
}

// MakeBuilder creates a new builder. By default nothing is recorded and no
// monitoring server is started.
func MakeBuilder() Builder {
	return Builder{
		testerBuilder: tester.MakeBuilder(),
	}
}

// WithTesterBuilder sets how the tester is built.
func (b Builder) WithTesterBuilder(tb tester.Builder) Builder {
	b.testerBuilder = tb
	return b
}

// WithMonitoring starts a monitoring server when the simulation is built.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithRecording records tasks into an SQLite file. An empty file name picks
// a unique one.
func (b Builder) WithRecording(filename string) Builder {
	b.recordOn = true
	b.outputFileName = filename

	return b
}

// WithStepRecording also records one row per instruction.
func (b Builder) WithStepRecording() Builder {
	b.recordSteps = true
	return b
}

// WithPureGoRecorder records with the SQLite driver that does not need cgo.
func (b Builder) WithPureGoRecorder() Builder {
	b.pureGo = true
	return b
}

// WithLogger writes task events, and instructions if logSteps is set, to
// logger.
func (b Builder) WithLogger(logger *log.Logger, logSteps bool) Builder {
	b.logger = logger
	b.logSteps = logSteps

	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordOn && b.recordSteps {
		panic("step recording requires recording to be enabled")
	}
}

// Build builds the simulation around a simulator. It fails only if the
// recording file cannot be created.
func (b Builder) Build(sim mcu.Simulator) (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:     xid.New().String(),
		tester: b.testerBuilder.Build(sim),
	}

	s.stepCounter = tracing.NewStepCountTracer(tracing.AllTasks)
	tracing.CollectTrace(s.tester, s.stepCounter)

	if b.logger != nil {
		tracing.CollectTrace(s.tester, tracing.NewLogTracer(b.logger, b.logSteps))
	}

	if b.recordOn {
		if err := b.buildRecording(s); err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterTester(s.tester)
		s.monitorAddr = s.monitor.StartServer()
	}

	return s, nil
}

func (b Builder) buildRecording(s *Simulation) error {
	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "avrtester_run_" + s.id
	}

	driver := datarecording.DriverCGo
	if b.pureGo {
		driver = datarecording.DriverPureGo
	}

	recorder, err := datarecording.Open(driver, outputPath)
	if err != nil {
		return fmt.Errorf("build simulation: %w", err)
	}

	s.dataRecorder = recorder
	s.recordPath = outputPath + ".sqlite3"

	s.execRecorder = datarecording.NewExecRecorder(recorder)
	s.execRecorder.Start()
	s.execRecorder.Record("Run ID", s.id)

	s.dbTracer = tracing.NewDBTracer(recorder, b.recordSteps)
	tracing.CollectTrace(s.tester, s.dbTracer)

	return nil
}
