// Package agent manages VMs as supervised background jobs: it installs,
// starts, stops and uninstalls one launchd unit per VM and reconciles the
// supervisor's and the VM runtime's independent views into a status report.
package agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/javanstorm/vmlaunch/internal/launchd"
	"github.com/javanstorm/vmlaunch/internal/tart"
	"github.com/javanstorm/vmlaunch/internal/unit"
)

// Supervisor is the OS process supervisor holding the VM units.
type Supervisor interface {
	Load(ctx context.Context, path string) error
	Unload(ctx context.Context, path string) error
	Start(ctx context.Context, label string) error
	Stop(ctx context.Context, label string) error
	List(ctx context.Context) ([]launchd.Job, error)
}

// Runtime is the VM runtime the units launch.
type Runtime interface {
	List(ctx context.Context) ([]tart.VM, error)
	Stop(ctx context.Context, name string) error
	RunCommand(name, cacheDir string) []string
}

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) bool
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(question string) bool

// Confirm calls f.
func (f PrompterFunc) Confirm(question string) bool { return f(question) }

// Deny answers no to every question. It is the default for
// non-interactive use.
var Deny = PrompterFunc(func(string) bool { return false })

// Default timings.
const (
	DefaultStartTimeout     = 30 * time.Second
	DefaultStopGrace        = 15 * time.Second
	DefaultRuntimeStopGrace = 15 * time.Second
	DefaultPollInterval     = time.Second
)

// Options configures a Manager.
type Options struct {
	Layout     unit.Layout
	Store      unit.Store
	Supervisor Supervisor
	Runtime    Runtime

	// Prompter answers reinstall and log-cleanup questions. Defaults to Deny.
	Prompter Prompter

	// Clock drives grace periods. Defaults to the real clock.
	Clock clock.Clock

	// Log receives warnings and debug detail. Defaults to the standard logger.
	Log logrus.FieldLogger

	// CacheDir is the shared cache directory handed to every VM.
	CacheDir string

	// LockDir holds the per-identifier advisory locks. Empty disables locking.
	LockDir string

	// RunAtLoad makes launchd start a unit as soon as it is registered.
	RunAtLoad bool

	StartTimeout     time.Duration
	StopGrace        time.Duration
	RuntimeStopGrace time.Duration
	PollInterval     time.Duration
}

// Manager runs lifecycle operations. It assumes one command per process;
// concurrent invocations are serialized per VM by the advisory lock.
type Manager struct {
	layout     unit.Layout
	store      unit.Store
	supervisor Supervisor
	runtime    Runtime
	prompter   Prompter
	clock      clock.Clock
	log        logrus.FieldLogger

	cacheDir  string
	lockDir   string
	runAtLoad bool

	startTimeout     time.Duration
	stopGrace        time.Duration
	runtimeStopGrace time.Duration
	pollInterval     time.Duration
}

// New creates a Manager, applying defaults for unset options.
func New(opts Options) *Manager {
	m := &Manager{
		layout:           opts.Layout,
		store:            opts.Store,
		supervisor:       opts.Supervisor,
		runtime:          opts.Runtime,
		prompter:         opts.Prompter,
		clock:            opts.Clock,
		log:              opts.Log,
		cacheDir:         opts.CacheDir,
		lockDir:          opts.LockDir,
		runAtLoad:        opts.RunAtLoad,
		startTimeout:     opts.StartTimeout,
		stopGrace:        opts.StopGrace,
		runtimeStopGrace: opts.RuntimeStopGrace,
		pollInterval:     opts.PollInterval,
	}
	if m.store == nil {
		m.store = unit.NewFileStore(m.layout)
	}
	if m.prompter == nil {
		m.prompter = Deny
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	if m.startTimeout <= 0 {
		m.startTimeout = DefaultStartTimeout
	}
	if m.stopGrace <= 0 {
		m.stopGrace = DefaultStopGrace
	}
	if m.runtimeStopGrace <= 0 {
		m.runtimeStopGrace = DefaultRuntimeStopGrace
	}
	if m.pollInterval <= 0 {
		m.pollInterval = DefaultPollInterval
	}
	return m
}

// Layout returns the identifier layout the manager derives paths from.
func (m *Manager) Layout() unit.Layout {
	return m.layout
}
