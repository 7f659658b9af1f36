package agent

import (
	"context"

	"github.com/javanstorm/vmlaunch/internal/launchd"
	"github.com/javanstorm/vmlaunch/internal/tart"
)

// The probes below are read-only. A failing launchctl or tart call means
// the state is unknown, which is reported as not running / not found
// rather than returned as an error.

// Installed reports whether a unit definition exists for name.
func (m *Manager) Installed(name string) bool {
	return m.store.Exists(m.layout.Label(name))
}

// AgentRunning reports whether the supervisor holds a live process for label.
func (m *Manager) AgentRunning(ctx context.Context, label string) bool {
	job, ok := m.jobs(ctx)[label]
	return ok && job.Running()
}

// VMExists reports whether the runtime catalog lists exactly name.
func (m *Manager) VMExists(ctx context.Context, name string) bool {
	_, ok := tart.Find(m.catalog(ctx), name)
	return ok
}

// VMRunning reports whether the runtime lists name as running.
func (m *Manager) VMRunning(ctx context.Context, name string) bool {
	vm, ok := tart.Find(m.catalog(ctx), name)
	return ok && vm.IsRunning()
}

// jobs snapshots the supervisor's job list keyed by label.
func (m *Manager) jobs(ctx context.Context) map[string]launchd.Job {
	list, err := m.supervisor.List(ctx)
	if err != nil {
		m.log.WithError(err).Debug("supervisor state unavailable")
		return nil
	}
	jobs := make(map[string]launchd.Job, len(list))
	for _, j := range list {
		jobs[j.Label] = j
	}
	return jobs
}

// catalog snapshots the runtime's VM list.
func (m *Manager) catalog(ctx context.Context) []tart.VM {
	vms, err := m.runtime.List(ctx)
	if err != nil {
		m.log.WithError(err).Debug("VM runtime state unavailable")
		return nil
	}
	return vms
}
