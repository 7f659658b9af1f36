package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/javanstorm/vmlaunch/internal/agent"
	"github.com/javanstorm/vmlaunch/internal/config"
	"github.com/javanstorm/vmlaunch/internal/testutil"
	"github.com/javanstorm/vmlaunch/internal/unit"
)

const demoVM = "macos-sonoma-xcode:16.1"

type cliEnv struct {
	host   *testutil.Host
	store  *unit.MemStore
	layout unit.Layout
}

func setup(t *testing.T) *cliEnv {
	t.Helper()

	env := &cliEnv{layout: testutil.TestLayout(t)}
	env.store = unit.NewMemStore(env.layout)
	env.host = testutil.NewHost(env.store)
	clk := testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	cacheDir := filepath.Join(t.TempDir(), "cache")

	origNew, origLoad, origGlobal := newManager, loadConfig, config.Global
	t.Cleanup(func() {
		newManager, loadConfig, config.Global = origNew, origLoad, origGlobal
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	loadConfig = func() error {
		config.Global = config.DefaultConfig()
		return nil
	}
	newManager = func() (*agent.Manager, error) {
		return agent.New(agent.Options{
			Layout:     env.layout,
			Store:      env.store,
			Supervisor: env.host.Supervisor(),
			Runtime:    env.host.Runtime(),
			Prompter:   agent.Deny,
			Clock:      clk,
			Log:        logrus.StandardLogger(),
			CacheDir:   cacheDir,
		}), nil
	}
	return env
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	installForce, uninstallCleanLogs, listVerbose, logLevel = false, false, false, ""
	var stdout, stderr bytes.Buffer
	code := execute(append([]string{}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		prep []string
		args []string
		want int
	}{
		{name: "no arguments shows help", args: nil, want: ExitOK},
		{name: "help", args: []string{"help"}, want: ExitOK},
		{name: "version", args: []string{"version"}, want: ExitOK},
		{name: "list empty", args: []string{"list"}, want: ExitOK},
		{name: "unknown command", args: []string{"frobnicate"}, want: ExitUsage},
		{name: "unknown flag", args: []string{"install", demoVM, "--bogus"}, want: ExitUsage},
		{name: "missing name", args: []string{"start"}, want: ExitUsage},
		{name: "too many names", args: []string{"stop", "a", "b"}, want: ExitUsage},
		{name: "list takes no names", args: []string{"list", demoVM}, want: ExitUsage},
		{name: "bad log level", args: []string{"--log-level", "loud", "list"}, want: ExitUsage},
		{name: "empty name", args: []string{"install", ""}, want: ExitEmptyName},
		{name: "start not installed", args: []string{"start", demoVM}, want: ExitNotInstalled},
		{name: "stop not installed", args: []string{"stop", demoVM}, want: ExitNotInstalled},
		{name: "uninstall not installed", args: []string{"uninstall", demoVM}, want: ExitNotInstalled},
		{name: "install", args: []string{"install", demoVM}, want: ExitOK},
		{name: "install twice", prep: []string{"install", demoVM}, args: []string{"install", demoVM}, want: ExitConflict},
		{name: "install twice forced", prep: []string{"install", demoVM}, args: []string{"install", "-f", demoVM}, want: ExitOK},
		{name: "stop not running", prep: []string{"install", demoVM}, args: []string{"stop", demoVM}, want: ExitConflict},
		{name: "uninstall", prep: []string{"install", demoVM}, args: []string{"uninstall", "-c", demoVM}, want: ExitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			if tt.prep != nil {
				_, stderr, code := run(t, tt.prep...)
				require.Equal(t, ExitOK, code, stderr)
			}

			_, stderr, code := run(t, tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			if tt.want != ExitOK {
				assert.True(t, strings.HasPrefix(stderr, "Error: "), "stderr = %q", stderr)
				assert.Equal(t, 1, strings.Count(stderr, "\n"), "diagnostic must be one line: %q", stderr)
			}
		})
	}
}

func TestStartNotInstalledMakesNoSupervisorCall(t *testing.T) {
	env := setup(t)
	env.host.AddVM(demoVM, false)

	_, _, code := run(t, "start", demoVM)
	assert.Equal(t, ExitNotInstalled, code)
	assert.Empty(t, env.host.Calls())
}

func TestScenarioInstallThenList(t *testing.T) {
	setup(t)

	stdout, stderr, code := run(t, "install", demoVM)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Installed "+demoVM+" as com.vmlaunch.test.macos-sonoma-xcode-16.1")

	stdout, _, code = run(t, "list")
	require.Equal(t, ExitOK, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"NAME", "AGENT", "VM"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{demoVM, "Stopped", "NotFound"}, strings.Fields(lines[1]))
}

func TestStartStopCycle(t *testing.T) {
	env := setup(t)
	env.host.AddVM(demoVM, false)

	_, _, code := run(t, "install", demoVM)
	require.Equal(t, ExitOK, code)

	stdout, _, code := run(t, "start", demoVM)
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "Started "+demoVM+"\n", stdout)

	_, _, code = run(t, "start", demoVM)
	assert.Equal(t, ExitConflict, code, "double start")
	assert.Len(t, env.host.CallsWithPrefix("launchctl start"), 1)

	stdout, _, code = run(t, "list", "--verbose")
	require.Equal(t, ExitOK, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	require.Len(t, fields, 5)
	assert.Equal(t, []string{demoVM, "Running", "Running"}, fields[:3])
	assert.NotEqual(t, "-", fields[4])

	stdout, _, code = run(t, "stop", demoVM)
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "Stopped "+demoVM+"\n", stdout)
}

func TestStartNotConfirmed(t *testing.T) {
	env := setup(t)
	env.host.StartLaunchesVM = false
	env.host.AddVM(demoVM, false)

	_, _, code := run(t, "install", demoVM)
	require.Equal(t, ExitOK, code)

	stdout, stderr, code := run(t, "start", demoVM)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "not yet confirmed running")
	assert.Contains(t, stderr, "level=warning")
}

func TestUninstallReportsKeptLogs(t *testing.T) {
	env := setup(t)

	_, _, code := run(t, "install", demoVM)
	require.Equal(t, ExitOK, code)
	stdoutLog, _ := env.layout.LogPaths(demoVM)
	require.NoError(t, os.WriteFile(stdoutLog, []byte("boot\n"), 0o644))

	stdout, _, code := run(t, "uninstall", demoVM)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Uninstalled "+demoVM)
	assert.Contains(t, stdout, "Log files kept:\n  "+stdoutLog)
	assert.FileExists(t, stdoutLog)
}

func TestPrerequisiteFailure(t *testing.T) {
	setup(t)
	newManager = func() (*agent.Manager, error) {
		return nil, agent.Prerequisite(errors.New("tart not found, install it with: brew install cirruslabs/cli/tart"))
	}

	_, stderr, code := run(t, "list")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "Error: tart not found, install it with: brew install cirruslabs/cli/tart\n", stderr)

	_, _, code = run(t, "version")
	assert.Equal(t, ExitOK, code, "version needs no prerequisites")
}

func TestConfigFailure(t *testing.T) {
	setup(t)
	loadConfig = func() error {
		return errors.New("invalid configuration: start_timeout: must be positive, got 0s")
	}

	_, stderr, code := run(t, "list")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "start_timeout")
}

func TestVersion(t *testing.T) {
	setup(t)

	stdout, _, code := run(t, "version")
	require.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "vmlaunch dev\n"), stdout)
}

func TestEmptyNameNeedsNoHost(t *testing.T) {
	setup(t)
	newManager = defaultManager

	for _, cmd := range []string{"install", "start", "stop", "uninstall"} {
		t.Run(cmd, func(t *testing.T) {
			_, stderr, code := run(t, cmd, "")
			assert.Equal(t, ExitEmptyName, code, stderr)
			assert.Equal(t, "Error: "+cmd+": VM name must not be empty\n", stderr)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})
	cfg := config.DefaultConfig()

	tests := []struct {
		name      string
		flag      string
		cfgLevel  string
		wantLevel logrus.Level
		wantCode  int
	}{
		{name: "config default", cfgLevel: "warn", wantLevel: logrus.WarnLevel},
		{name: "flag overrides config", flag: "debug", cfgLevel: "warn", wantLevel: logrus.DebugLevel},
		{name: "bad flag", flag: "loud", cfgLevel: "warn", wantCode: ExitUsage},
		{name: "bad config level", cfgLevel: "loud", wantCode: ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.LogLevel = tt.cfgLevel
			var out bytes.Buffer

			err := setupLogging(&out, tt.flag, cfg)
			if tt.wantCode != ExitOK {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, ExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, logrus.GetLevel())

			logrus.Warn("visible")
			assert.Contains(t, out.String(), `msg=visible`)
		})
	}
}
