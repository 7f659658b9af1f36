// Package testutil provides common test helpers for vmlaunch tests: an
// in-memory host that plays both launchd and tart, and temp-dir layouts.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/javanstorm/vmlaunch/internal/launchd"
	"github.com/javanstorm/vmlaunch/internal/tart"
	"github.com/javanstorm/vmlaunch/internal/unit"
)

// TestPrefix is the label namespace used by test layouts.
const TestPrefix = "com.vmlaunch.test"

// TestLayout returns a unit layout rooted in t.TempDir(). The directories
// are not created, matching a fresh host.
func TestLayout(t *testing.T) unit.Layout {
	t.Helper()

	dir := t.TempDir()
	return unit.Layout{
		Prefix:  TestPrefix,
		UnitDir: filepath.Join(dir, "LaunchAgents"),
		LogDir:  filepath.Join(dir, "Logs"),
	}
}

// Host simulates launchd and tart sharing one machine. Supervisor and
// Runtime views are obtained with Supervisor() and Runtime().
type Host struct {
	mu    sync.Mutex
	store unit.Store
	jobs  map[string]launchd.Job
	vms   map[string]tart.VM
	calls []string
	pid   int

	// StartLaunchesVM makes a supervisor start boot the VM named in the unit.
	StartLaunchesVM bool

	// SupervisorStopStopsVM makes a supervisor stop (or unload) halt the VM.
	SupervisorStopStopsVM bool

	// RuntimeStopStopsVM makes `tart stop` halt the VM.
	RuntimeStopStopsVM bool

	LoadErr, UnloadErr, StartErr, StopErr, ListErr error
	RuntimeListErr, RuntimeStopErr             error
}

// NewHost creates a host whose supervisor reads unit definitions from
// store. All VM state transitions take effect by default.
func NewHost(store unit.Store) *Host {
	return &Host{
		store:                 store,
		jobs:                  make(map[string]launchd.Job),
		vms:                   make(map[string]tart.VM),
		pid:                   4000,
		StartLaunchesVM:       true,
		SupervisorStopStopsVM: true,
		RuntimeStopStopsVM:    true,
	}
}

// AddVM puts name in the runtime catalog.
func (h *Host) AddVM(name string, running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setVM(name, running)
}

// SetJob records a loaded job directly, bypassing Load.
func (h *Host) SetJob(job launchd.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[job.Label] = job
}

// Job returns the loaded job for label.
func (h *Host) Job(label string) (launchd.Job, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	j, ok := h.jobs[label]
	return j, ok
}

// VM returns the catalog entry for name.
func (h *Host) VM(name string) (tart.VM, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.vms[name]
	return v, ok
}

// Calls returns every external command issued so far, as command lines.
func (h *Host) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// CallsWithPrefix returns the recorded calls starting with prefix.
func (h *Host) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range h.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Supervisor returns the launchd view of the host.
func (h *Host) Supervisor() *FakeSupervisor { return &FakeSupervisor{h: h} }

// Runtime returns the tart view of the host.
func (h *Host) Runtime() *FakeRuntime { return &FakeRuntime{h: h} }

func (h *Host) record(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *Host) setVM(name string, running bool) {
	state := "stopped"
	if running {
		state = "running"
	}
	h.vms[name] = tart.VM{Name: name, Source: "local", State: state}
}

func (h *Host) haltVM(name string) {
	if v, ok := h.vms[name]; ok && v.IsRunning() {
		h.setVM(name, false)
	}
}

func (h *Host) vmFor(label string) string {
	if def, err := h.store.Get(label); err == nil {
		return def.VMName()
	}
	return ""
}

// FakeSupervisor implements the launchctl client contract.
type FakeSupervisor struct{ h *Host }

func labelFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), unit.FileExt)
}

// Load registers the unit at path.
func (s *FakeSupervisor) Load(ctx context.Context, path string) error {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("launchctl load %s", path)
	if h.LoadErr != nil {
		return h.LoadErr
	}
	label := labelFromPath(path)
	h.jobs[label] = launchd.Job{Label: label}
	return nil
}

// Unload deregisters the unit at path, killing its process.
func (s *FakeSupervisor) Unload(ctx context.Context, path string) error {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("launchctl unload %s", path)
	if h.UnloadErr != nil {
		return h.UnloadErr
	}
	label := labelFromPath(path)
	job, ok := h.jobs[label]
	if !ok {
		return fmt.Errorf("launchctl unload: could not find specified service")
	}
	if job.Running() && h.SupervisorStopStopsVM {
		h.haltVM(h.vmFor(label))
	}
	delete(h.jobs, label)
	return nil
}

// Start spawns the unit's process.
func (s *FakeSupervisor) Start(ctx context.Context, label string) error {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("launchctl start %s", label)
	if h.StartErr != nil {
		return h.StartErr
	}
	job, ok := h.jobs[label]
	if !ok {
		return fmt.Errorf("launchctl start %s: exit status 113", label)
	}
	h.pid++
	job.PID = h.pid
	h.jobs[label] = job
	if h.StartLaunchesVM {
		if name := h.vmFor(label); name != "" {
			if _, exists := h.vms[name]; exists {
				h.setVM(name, true)
			}
		}
	}
	return nil
}

// Stop signals the unit's process.
func (s *FakeSupervisor) Stop(ctx context.Context, label string) error {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("launchctl stop %s", label)
	if h.StopErr != nil {
		return h.StopErr
	}
	job, ok := h.jobs[label]
	if !ok {
		return nil
	}
	job.PID = 0
	h.jobs[label] = job
	if h.SupervisorStopStopsVM {
		h.haltVM(h.vmFor(label))
	}
	return nil
}

// List returns the loaded jobs sorted by label.
func (s *FakeSupervisor) List(ctx context.Context) ([]launchd.Job, error) {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ListErr != nil {
		return nil, h.ListErr
	}
	jobs := make([]launchd.Job, 0, len(h.jobs))
	for _, j := range h.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Label < jobs[j].Label })
	return jobs, nil
}

// FakeRuntime implements the tart client contract.
type FakeRuntime struct{ h *Host }

// List returns the VM catalog sorted by name.
func (r *FakeRuntime) List(ctx context.Context) ([]tart.VM, error) {
	h := r.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.RuntimeListErr != nil {
		return nil, h.RuntimeListErr
	}
	vms := make([]tart.VM, 0, len(h.vms))
	for _, v := range h.vms {
		vms = append(vms, v)
	}
	sort.Slice(vms, func(i, j int) bool { return vms[i].Name < vms[j].Name })
	return vms, nil
}

// Stop halts name directly.
func (r *FakeRuntime) Stop(ctx context.Context, name string) error {
	h := r.h
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("tart stop %s", name)
	if h.RuntimeStopErr != nil {
		return h.RuntimeStopErr
	}
	if h.RuntimeStopStopsVM {
		h.haltVM(name)
	}
	return nil
}

// RunCommand mirrors tart.Client.RunCommand with a bare "tart" binary.
func (r *FakeRuntime) RunCommand(name, cacheDir string) []string {
	return tart.New("tart", nil).RunCommand(name, cacheDir)
}
