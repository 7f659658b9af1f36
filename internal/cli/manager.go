package cli

import (
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/javanstorm/vmlaunch/internal/agent"
	"github.com/javanstorm/vmlaunch/internal/config"
	"github.com/javanstorm/vmlaunch/internal/deps"
	"github.com/javanstorm/vmlaunch/internal/launchd"
	"github.com/javanstorm/vmlaunch/internal/tart"
	"github.com/javanstorm/vmlaunch/internal/terminal"
	"github.com/javanstorm/vmlaunch/internal/tools"
	"github.com/javanstorm/vmlaunch/internal/unit"
)

// newManager builds the lifecycle manager for one invocation. Commands call
// it only after cobra ran their Args validators, so usage errors, the empty
// name included, never depend on the host.
var newManager = defaultManager

func defaultManager() (*agent.Manager, error) {
	cfg := config.Global
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	dm := deps.NewDependencyManager()
	required := []deps.Dependency{deps.Launchctl(cfg.LaunchctlPath), deps.Tart(cfg.TartPath)}
	if err := dm.EnsureDependencies(required); err != nil {
		return nil, agent.Prerequisite(err)
	}

	runner := tools.ExecRunner{}
	layout := unit.Layout{Prefix: cfg.LabelPrefix, UnitDir: cfg.UnitDir, LogDir: cfg.LogDir}
	return agent.New(agent.Options{
		Layout:           layout,
		Store:            unit.NewFileStore(layout),
		Supervisor:       launchd.New(cfg.LaunchctlPath, runner),
		Runtime:          tart.New(cfg.TartPath, runner),
		Prompter:         terminal.Current(),
		Clock:            clock.RealClock{},
		Log:              logrus.StandardLogger(),
		CacheDir:         cfg.CacheDir,
		LockDir:          cfg.LockDir,
		RunAtLoad:        cfg.RunAtLoad,
		StartTimeout:     cfg.StartTimeout,
		StopGrace:        cfg.StopGrace,
		RuntimeStopGrace: cfg.RuntimeStopGrace,
		PollInterval:     cfg.PollInterval,
	}), nil
}
