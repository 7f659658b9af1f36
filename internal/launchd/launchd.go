// Package launchd drives the macOS per-user process supervisor through
// launchctl.
package launchd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/javanstorm/vmlaunch/internal/tools"
)

// ErrNotLoaded is returned when launchd does not know the job.
var ErrNotLoaded = errors.New("launchd: job not loaded")

// exitNoSuchService is launchctl's exit status for an unknown label.
const exitNoSuchService = 113

// Job is one row of `launchctl list`.
type Job struct {
	Label string

	// PID is the live process id, or 0 when launchctl shows "-".
	PID int

	// LastExitStatus is the job's last exit status as reported by launchd.
	LastExitStatus int
}

// Running reports whether launchd holds a live process for the job.
func (j Job) Running() bool {
	return j.PID > 0
}

// Client issues launchctl commands.
type Client struct {
	bin    string
	runner tools.Runner
}

// New creates a client invoking bin (usually "launchctl") via runner.
func New(bin string, runner tools.Runner) *Client {
	if bin == "" {
		bin = "launchctl"
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Client{bin: bin, runner: runner}
}

// Load registers the job defined at path.
func (c *Client) Load(ctx context.Context, path string) error {
	return c.runDetectErr(ctx, "load", path)
}

// Unload deregisters the job defined at path, stopping it if running.
func (c *Client) Unload(ctx context.Context, path string) error {
	return c.runDetectErr(ctx, "unload", path)
}

// Start asks launchd to start the job with label.
func (c *Client) Start(ctx context.Context, label string) error {
	return c.run(ctx, "start", label)
}

// Stop asks launchd to stop the job with label.
func (c *Client) Stop(ctx context.Context, label string) error {
	return c.run(ctx, "stop", label)
}

// List returns every job known to the per-user launchd domain.
func (c *Client) List(ctx context.Context) ([]Job, error) {
	res, err := c.runner.Run(ctx, c.bin, "list")
	if err != nil {
		return nil, fmt.Errorf("launchctl list: %w", err)
	}
	return ParseList(res.Stdout)
}

func (c *Client) run(ctx context.Context, args ...string) error {
	if _, err := c.runner.Run(ctx, c.bin, args...); err != nil {
		if tools.ExitCode(err) == exitNoSuchService {
			return fmt.Errorf("launchctl %s: %w: %w", args[0], ErrNotLoaded, err)
		}
		return fmt.Errorf("launchctl %s: %w", args[0], err)
	}
	return nil
}

// runDetectErr treats stderr output as failure: launchctl load/unload exit
// zero even when the job could not be (de)registered.
func (c *Client) runDetectErr(ctx context.Context, args ...string) error {
	res, err := c.runner.Run(ctx, c.bin, args...)
	if err != nil {
		return fmt.Errorf("launchctl %s: %w", args[0], err)
	}
	if msg := strings.TrimSpace(string(res.Stderr)); msg != "" {
		if strings.Contains(msg, "Could not find specified service") {
			return fmt.Errorf("launchctl %s: %w: %s", args[0], ErrNotLoaded, msg)
		}
		return fmt.Errorf("launchctl %s: %s", args[0], msg)
	}
	return nil
}

// ParseList parses `launchctl list` output: a "PID Status Label" header
// followed by one tab-separated row per job, with "-" as the placeholder
// for a missing PID or status.
func ParseList(data []byte) ([]Job, error) {
	var jobs []Job
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("launchctl list: unexpected line %q", line)
		}
		if fields[0] == "PID" {
			continue
		}

		pid, err := parseField(fields[0])
		if err != nil {
			return nil, fmt.Errorf("launchctl list: bad pid in %q: %w", line, err)
		}
		status, err := parseField(fields[1])
		if err != nil {
			return nil, fmt.Errorf("launchctl list: bad status in %q: %w", line, err)
		}
		jobs = append(jobs, Job{
			Label:          strings.Join(fields[2:], " "),
			PID:            pid,
			LastExitStatus: status,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("launchctl list: %w", err)
	}
	return jobs, nil
}

func parseField(s string) (int, error) {
	if s == "-" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
