// Package deps checks the host for the tools vmlaunch drives.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Dependency represents a required external tool.
type Dependency struct {
	Name        string            // Tool name (e.g., "tart")
	Command     string            // Command to look up (name or absolute path)
	Packages    map[string]string // host OS -> Homebrew formula; "" ships with the OS
	Description string            // Human-readable description
}

// Launchctl is the launchd control tool. It ships with macOS.
func Launchctl(command string) Dependency {
	return Dependency{
		Name:        "launchctl",
		Command:     command,
		Description: "Register and control per-user launchd agents",
		Packages:    map[string]string{"macos": ""},
	}
}

// Tart is the VM runtime.
func Tart(command string) Dependency {
	return Dependency{
		Name:        "tart",
		Command:     command,
		Description: "Run and stop macOS and Linux VMs",
		Packages:    map[string]string{"macos": "cirruslabs/cli/tart"},
	}
}

// ErrUnsupportedOS is returned on hosts without launchd.
var ErrUnsupportedOS = errors.New("vmlaunch requires macOS (launchd)")

// MissingError lists required tools that could not be found.
type MissingError struct {
	HostOS  string
	Missing []Dependency
}

func (e *MissingError) Error() string {
	var b strings.Builder
	for i, dep := range e.Missing {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s not found (%s)", dep.Command, dep.Description)
		if pkg := dep.Packages[e.HostOS]; pkg != "" {
			fmt.Fprintf(&b, ", install it with: brew install %s", pkg)
		}
	}
	return b.String()
}

// DependencyManager handles checking dependencies.
type DependencyManager struct {
	hostOS   string // "macos", or runtime.GOOS elsewhere
	lookPath func(string) (string, error)
}

// NewDependencyManager creates a dependency manager for the current host.
func NewDependencyManager() *DependencyManager {
	return newDependencyManager(runtime.GOOS, exec.LookPath)
}

func newDependencyManager(goos string, lookPath func(string) (string, error)) *DependencyManager {
	hostOS := goos
	if goos == "darwin" {
		hostOS = "macos"
	}
	return &DependencyManager{hostOS: hostOS, lookPath: lookPath}
}

// HostOS returns the detected host OS family.
func (m *DependencyManager) HostOS() string {
	return m.hostOS
}

// CheckDependency checks if a dependency is installed.
func (m *DependencyManager) CheckDependency(dep Dependency) bool {
	_, err := m.lookPath(dep.Command)
	return err == nil
}

// EnsureDependencies verifies the host runs macOS and every dependency is
// installed. Nothing is installed on the operator's behalf.
func (m *DependencyManager) EnsureDependencies(deps []Dependency) error {
	if m.hostOS != "macos" {
		return fmt.Errorf("%w, running on %s", ErrUnsupportedOS, m.hostOS)
	}

	var missing []Dependency
	for _, dep := range deps {
		if !m.CheckDependency(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingError{HostOS: m.hostOS, Missing: missing}
}
