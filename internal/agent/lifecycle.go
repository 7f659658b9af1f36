package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/javanstorm/vmlaunch/internal/launchd"
	"github.com/javanstorm/vmlaunch/internal/tart"
	"github.com/javanstorm/vmlaunch/internal/timing"
	"github.com/javanstorm/vmlaunch/internal/unit"
)

// StartResult reports the outcome of Start.
type StartResult struct {
	Label string

	// Confirmed is set when the runtime reported the VM running before the
	// start timeout. An unconfirmed start still succeeded from the
	// supervisor's point of view.
	Confirmed bool
}

// StopResult reports the outcome of Stop.
type StopResult struct {
	// Forced is set when the supervisor stop was not enough and the VM was
	// stopped through the runtime directly.
	Forced bool

	// Stopped is set when the runtime no longer reported the VM running at
	// the end of the last grace period.
	Stopped bool
}

// UninstallResult reports what happened to the VM's log files.
type UninstallResult struct {
	Stopped     bool
	RemovedLogs []string
	KeptLogs    []string
}

type logPolicy int

const (
	logsAsk logPolicy = iota
	logsRemove
	logsKeep
)

func checkName(op, name string) error {
	if name == "" {
		return validationError(op, name, ErrEmptyName)
	}
	return nil
}

// Install writes the unit definition for name and registers it with the
// supervisor. An existing installation is torn down first; without force
// the operator must confirm. Registration does not start the VM unless
// RunAtLoad is set.
func (m *Manager) Install(ctx context.Context, name string, force bool) error {
	const op = "install"
	if err := checkName(op, name); err != nil {
		return err
	}
	unlock, err := m.lock(op, name)
	if err != nil {
		return err
	}
	defer unlock()

	label := m.layout.Label(name)
	log := m.log.WithFields(logrus.Fields{"vm": name, "label": label})

	if m.store.Exists(label) {
		if existing, err := m.store.Get(label); err == nil && existing.VMName() != "" && existing.VMName() != name {
			log.Warnf("unit %s already belongs to VM %q; names that differ only by case or ':'/'/' share one unit", label, existing.VMName())
		}
		if !force && !m.prompter.Confirm(fmt.Sprintf("VM %q is already installed. Reinstall it?", name)) {
			return conflictError(op, name, AlreadyInstalled, "already installed at %s (use --force to reinstall)", m.store.Path(label))
		}
		log.Info("removing existing installation")
		if _, err := m.uninstall(ctx, op, name, label, logsKeep); err != nil {
			return err
		}
	}

	for _, dir := range []string{m.cacheDir, m.layout.UnitDir, m.layout.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioError(op, name, fmt.Errorf("create directory: %w", err))
		}
	}

	def := m.layout.Generate(unit.Params{
		Name:      name,
		Program:   m.runtime.RunCommand(name, m.cacheDir),
		RunAtLoad: m.runAtLoad,
	})
	if err := m.store.Put(def); err != nil {
		return ioError(op, name, err)
	}

	path := m.store.Path(label)
	if err := m.supervisor.Load(ctx, path); err != nil {
		if derr := m.store.Delete(label); derr != nil {
			log.WithError(derr).Warn("could not remove unit definition after failed registration")
		}
		return toolError(op, name, fmt.Errorf("register %s: %w", path, err))
	}
	log.WithField("path", path).Debug("unit registered")
	return nil
}

// Start asks the supervisor to start name's unit and polls until the
// runtime reports the VM running or the start timeout passes.
func (m *Manager) Start(ctx context.Context, name string) (StartResult, error) {
	const op = "start"
	if err := checkName(op, name); err != nil {
		return StartResult{}, err
	}
	unlock, err := m.lock(op, name)
	if err != nil {
		return StartResult{}, err
	}
	defer unlock()

	label := m.layout.Label(name)
	res := StartResult{Label: label}
	if !m.store.Exists(label) {
		return res, conflictError(op, name, NotInstalled, "not installed (expected an installed unit at %s)", m.store.Path(label))
	}
	vmName := m.vmName(label, name)
	if m.VMRunning(ctx, vmName) {
		return res, conflictError(op, name, AlreadyRunning, "VM %q is already running (expected stopped)", vmName)
	}
	if m.cacheDir != "" {
		if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
			return res, ioError(op, name, fmt.Errorf("create cache directory: %w", err))
		}
	}

	timer := timing.New(m.clock)
	if err := m.supervisor.Start(ctx, label); err != nil {
		return res, toolError(op, name, err)
	}
	res.Confirmed = Poll(ctx, m.clock, m.pollInterval, m.startTimeout, func(ctx context.Context) bool {
		return m.VMRunning(ctx, vmName)
	})
	timer.Mark("wait-running")
	timer.Log(m.log.WithField("vm", vmName), "start phases")

	if !res.Confirmed {
		m.log.WithField("vm", vmName).Warnf("start requested, but VM not yet confirmed running after %s", m.startTimeout)
	}
	return res, nil
}

// Stop stops name's VM: first through the supervisor, then, if the VM is
// still running after the grace period, through the runtime directly.
func (m *Manager) Stop(ctx context.Context, name string) (StopResult, error) {
	const op = "stop"
	if err := checkName(op, name); err != nil {
		return StopResult{}, err
	}
	unlock, err := m.lock(op, name)
	if err != nil {
		return StopResult{}, err
	}
	defer unlock()

	label := m.layout.Label(name)
	if !m.store.Exists(label) {
		return StopResult{}, conflictError(op, name, NotInstalled, "not installed (expected an installed unit at %s)", m.store.Path(label))
	}
	vmName := m.vmName(label, name)
	if !m.VMRunning(ctx, vmName) {
		return StopResult{}, conflictError(op, name, NotRunning, "VM %q is not running (expected running)", vmName)
	}
	return m.stop(ctx, op, vmName, label)
}

func (m *Manager) stop(ctx context.Context, op, name, label string) (StopResult, error) {
	var res StopResult
	log := m.log.WithFields(logrus.Fields{"vm": name, "label": label})
	timer := timing.New(m.clock)
	stopped := func(ctx context.Context) bool { return !m.VMRunning(ctx, name) }

	// launchctl stop only signals the process launchd spawned; it cannot
	// guarantee the runtime released the VM, hence the fallback below.
	if err := m.supervisor.Stop(ctx, label); err != nil {
		log.WithError(err).Warn("supervisor stop failed, falling back to runtime stop")
	}
	res.Stopped = Poll(ctx, m.clock, m.pollInterval, m.stopGrace, stopped)
	timer.Mark("supervisor-stop")

	if !res.Stopped {
		res.Forced = true
		log.Info("VM still running after supervisor stop, stopping through runtime")
		if err := m.runtime.Stop(ctx, name); err != nil {
			return res, toolError(op, name, err)
		}
		res.Stopped = Poll(ctx, m.clock, m.pollInterval, m.runtimeStopGrace, stopped)
		timer.Mark("runtime-stop")
		if !res.Stopped {
			log.Warnf("VM still reported running %s after runtime stop", m.runtimeStopGrace)
		}
	}
	timer.Log(log, "stop phases")
	return res, nil
}

// Uninstall stops name's VM if running, deregisters and deletes its unit,
// and removes its log files when cleanLogs is set or the operator agrees.
// If the stop fails the unit is left in place.
func (m *Manager) Uninstall(ctx context.Context, name string, cleanLogs bool) (UninstallResult, error) {
	const op = "uninstall"
	if err := checkName(op, name); err != nil {
		return UninstallResult{}, err
	}
	unlock, err := m.lock(op, name)
	if err != nil {
		return UninstallResult{}, err
	}
	defer unlock()

	label := m.layout.Label(name)
	if !m.store.Exists(label) {
		return UninstallResult{}, conflictError(op, name, NotInstalled, "not installed (expected an installed unit at %s)", m.store.Path(label))
	}
	policy := logsAsk
	if cleanLogs {
		policy = logsRemove
	}
	return m.uninstall(ctx, op, name, label, policy)
}

func (m *Manager) uninstall(ctx context.Context, op, name, label string, policy logPolicy) (UninstallResult, error) {
	var res UninstallResult
	log := m.log.WithFields(logrus.Fields{"vm": name, "label": label})

	vmName := m.vmName(label, name)

	if m.VMRunning(ctx, vmName) {
		if _, err := m.stop(ctx, op, vmName, label); err != nil {
			return res, err
		}
		res.Stopped = true
	}

	path := m.store.Path(label)
	if err := m.supervisor.Unload(ctx, path); err != nil {
		if errors.Is(err, launchd.ErrNotLoaded) {
			log.WithError(err).Debug("unit was not loaded")
		} else {
			log.WithError(err).Warn("deregistration failed; unit may already be unloaded")
		}
	}
	if err := m.store.Delete(label); err != nil {
		return res, ioError(op, name, err)
	}

	var logs []string
	stdout, stderr := m.layout.LogPaths(vmName)
	for _, p := range []string{stdout, stderr} {
		if _, err := os.Stat(p); err == nil {
			logs = append(logs, p)
		}
	}
	if len(logs) == 0 {
		return res, nil
	}

	remove := policy == logsRemove ||
		(policy == logsAsk && m.prompter.Confirm(fmt.Sprintf("Delete log files for %q?", vmName)))
	if !remove {
		res.KeptLogs = logs
		return res, nil
	}

	var merr *multierror.Error
	for _, p := range logs {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			merr = multierror.Append(merr, err)
			res.KeptLogs = append(res.KeptLogs, p)
			continue
		}
		res.RemovedLogs = append(res.RemovedLogs, p)
	}
	if err := merr.ErrorOrNil(); err != nil {
		log.WithError(err).Warn("could not remove some log files")
	}
	return res, nil
}

// List reports every installed unit with its agent and VM state.
func (m *Manager) List(ctx context.Context) ([]StatusRow, error) {
	labels, err := m.store.List()
	if err != nil {
		return nil, ioError("list", "", err)
	}
	if len(labels) == 0 {
		return nil, nil
	}

	jobs := m.jobs(ctx)
	vms := m.catalog(ctx)

	rows := make([]StatusRow, 0, len(labels))
	for _, label := range labels {
		name, fromLabel := m.nameFor(label)
		job, jobFound := jobs[label]
		vm, vmFound := tart.Find(vms, name)
		row := Reconcile(name, label, job, jobFound, vm, vmFound)
		row.NameFromLabel = fromLabel
		rows = append(rows, row)
	}
	return rows, nil
}

// vmName returns the VM the unit at label launches. Names that sanitize
// alike share one unit, so this may differ from the name the operator typed.
func (m *Manager) vmName(label, name string) string {
	if def, err := m.store.Get(label); err == nil && def.VMName() != "" {
		return def.VMName()
	}
	return name
}

// nameFor recovers the VM name for label, falling back to the label suffix
// when the unit's embedded name cannot be read.
func (m *Manager) nameFor(label string) (string, bool) {
	def, err := m.store.Get(label)
	if err == nil && def.VMName() != "" {
		return def.VMName(), false
	}
	if err != nil {
		m.log.WithError(err).WithField("label", label).Debug("unit unreadable, deriving name from label")
	}
	return m.layout.NameFromLabel(label), true
}
