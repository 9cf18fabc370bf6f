// Package monitoring turns a running tester into a small web server so that
// its progress can be watched and its tasks controlled from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/idgen"
	"github.com/sarchlab/avrtester/monitoring/web"
	"github.com/sarchlab/avrtester/tester"
)

// Monitor can turn a tester into a server and allows external monitoring and
// controlling of its tasks.
//
// The monitor never touches the tester from the server goroutine. It keeps a
// snapshot that hooks update on the tester's goroutine, and controls tasks
// through their handles, whose state changes are observed on the next pass.
type Monitor struct {
	runID      string
	portNumber int
	profileFor time.Duration

	lock       sync.Mutex
	registered bool
	snapshot   nowRsp
	tasks      map[idgen.ID]*components.Handle
	ended      map[components.EvictionReason]uint64

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	runID := xid.New().String()

	return &Monitor{
		runID:      runID,
		profileFor: time.Second,
		snapshot:   nowRsp{RunID: runID},
		tasks:      make(map[idgen.ID]*components.Handle),
		ended:      make(map[components.EvictionReason]uint64),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RunID returns the unique id of the monitored run.
func (m *Monitor) RunID() string {
	return m.runID
}

// RegisterTester starts following a tester. Only one tester can be
// registered, and it must be registered from the goroutine that runs it.
func (m *Monitor) RegisterTester(t *tester.Tester) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.registered {
		panic("monitor already has a tester")
	}

	m.registered = true
	m.snapshot.Freq = uint32(t.Freq())
	m.snapshot.Steps = t.Steps()
	m.snapshot.NowCycles = t.Now().AsCycles()
	m.snapshot.NowMicros = t.Now().AsMicrosFloat()

	for _, h := range t.Components().Handles() {
		m.tasks[h.ID()] = h
	}

	t.AcceptHook(m)
	t.Components().AcceptHook(m)
}

// Func updates the snapshot when the tester steps or the task set changes.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch ctx.Pos {
	case tester.HookPosAfterStep:
		event := ctx.Item.(tester.StepEvent)
		m.snapshot.Steps = event.Step
		m.snapshot.NowCycles = event.Now.AsCycles()
		m.snapshot.NowMicros = event.Now.AsMicrosFloat()
		m.snapshot.State = event.Outcome.State.String()
	case components.HookPosTaskAdded:
		h := ctx.Item.(*components.Handle)
		m.tasks[h.ID()] = h
	case components.HookPosTaskEvicted:
		h := ctx.Item.(*components.Handle)
		delete(m.tasks, h.ID())
		m.ended[ctx.Detail.(components.EvictionReason)]++
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router serving the monitor API and page.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/tasks", m.listTasks)
	r.HandleFunc("/api/task/{id}", m.taskDetail)
	r.HandleFunc("/api/task/{id}/{action}", m.controlTask).
		Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns the address it
// listens on.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	addr := fmt.Sprintf("localhost:%d", listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring run %s with http://%s\n", m.runID, addr)

	handler := m.Handler()

	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	return addr
}

type nowRsp struct {
	RunID     string  `json:"run_id"`
	Freq      uint32  `json:"freq"`
	Steps     uint64  `json:"steps"`
	NowCycles uint64  `json:"now_cycles"`
	NowMicros float64 `json:"now_us"`
	State     string  `json:"state"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	rsp := m.snapshot
	m.lock.Unlock()

	writeJSON(w, rsp)
}

type taskRsp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

func (m *Monitor) listTasks(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	handles := make([]*components.Handle, 0, len(m.tasks))
	for _, h := range m.tasks {
		handles = append(handles, h)
	}
	m.lock.Unlock()

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].ID() < handles[j].ID()
	})

	rsp := make([]taskRsp, 0, len(handles))
	for _, h := range handles {
		rsp = append(rsp, taskRsp{
			ID:    h.ID().String(),
			Name:  h.Name(),
			State: h.State().String(),
		})
	}

	writeJSON(w, rsp)
}

// taskDetail is what /api/task/{id} serializes.
type taskDetail struct {
	ID       string
	Name     string
	State    string
	RunID    string
	Finished map[string]uint64
}

func (m *Monitor) taskDetail(w http.ResponseWriter, r *http.Request) {
	h := m.findTaskOr404(w, r)
	if h == nil {
		return
	}

	detail := &taskDetail{
		ID:       h.ID().String(),
		Name:     h.Name(),
		State:    h.State().String(),
		RunID:    m.runID,
		Finished: make(map[string]uint64),
	}

	m.lock.Lock()
	for reason, n := range m.ended {
		detail.Finished[string(reason)] = n
	}
	m.lock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(detail)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) controlTask(w http.ResponseWriter, r *http.Request) {
	h := m.findTaskOr404(w, r)
	if h == nil {
		return
	}

	switch action := mux.Vars(r)["action"]; action {
	case "pause":
		h.Pause()
	case "resume":
		h.Resume()
	case "remove":
		h.Remove()
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Unknown action %s", action)

		return
	}

	writeJSON(w, taskRsp{
		ID:    h.ID().String(),
		Name:  h.Name(),
		State: h.State().String(),
	})
}

func (m *Monitor) findTaskOr404(
	w http.ResponseWriter,
	r *http.Request,
) *components.Handle {
	id, err := idgen.Parse(mux.Vars(r)["id"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return nil
	}

	m.lock.Lock()
	h := m.tasks[id]
	m.lock.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Task not found"))
		dieOnErr(err)
	}

	return h
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileFor)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
