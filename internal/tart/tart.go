// Package tart queries and controls VMs through the tart CLI.
package tart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/javanstorm/vmlaunch/internal/tools"
)

// VM is one entry of `tart list --format json`.
type VM struct {
	Name   string `json:"Name"`
	Source string `json:"Source"`
	State  string `json:"State"`

	// Running is reported by older tart releases instead of State.
	Running bool `json:"Running"`
}

// IsRunning reports whether tart considers the VM running.
func (v VM) IsRunning() bool {
	if v.State != "" {
		return strings.EqualFold(v.State, "running")
	}
	return v.Running
}

// Client issues tart commands.
type Client struct {
	bin    string
	runner tools.Runner
}

// New creates a client invoking bin (usually "tart") via runner.
func New(bin string, runner tools.Runner) *Client {
	if bin == "" {
		bin = "tart"
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Client{bin: bin, runner: runner}
}

// List returns the runtime's VM catalog.
func (c *Client) List(ctx context.Context) ([]VM, error) {
	res, err := c.runner.Run(ctx, c.bin, "list", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("tart list: %w", err)
	}
	return ParseList(res.Stdout)
}

// Stop stops the VM directly, bypassing any supervisor.
func (c *Client) Stop(ctx context.Context, name string) error {
	if _, err := c.runner.Run(ctx, c.bin, "stop", name); err != nil {
		return fmt.Errorf("tart stop %s: %w", name, err)
	}
	return nil
}

// RunCommand returns the argv that runs name headless with the shared
// cache directory mounted into the guest.
func (c *Client) RunCommand(name, cacheDir string) []string {
	return []string{c.bin, "run", "--no-graphics", "--dir=cache:" + cacheDir, name}
}

// ParseList decodes `tart list --format json`. Empty output is an empty
// catalog.
func ParseList(data []byte) ([]VM, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var vms []VM
	if err := json.Unmarshal(data, &vms); err != nil {
		return nil, fmt.Errorf("parse tart list: %w", err)
	}
	return vms, nil
}

// Find returns the VM with exactly name.
func Find(vms []VM, name string) (VM, bool) {
	for _, v := range vms {
		if v.Name == name {
			return v, true
		}
	}
	return VM{}, false
}
