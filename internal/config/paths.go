// Package config provides configuration management for vmlaunch.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Paths holds platform-specific directory paths for vmlaunch.
type Paths struct {
	// Home is the operator's home directory.
	Home string

	// ConfigDir is the directory for configuration files.
	// macOS: ~/Library/Application Support/vmlaunch
	// Linux: ~/.config/vmlaunch (or XDG_CONFIG_HOME)
	ConfigDir string

	// DataDir holds the shared VM cache and lock files.
	// All platforms: ~/.vmlaunch
	DataDir string

	// ConfigFile is the path to the main config file.
	ConfigFile string
}

// GetPaths returns platform-aware paths for vmlaunch.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return pathsFor(home, runtime.GOOS), nil
}

func pathsFor(home, goos string) *Paths {
	p := &Paths{Home: home}

	p.DataDir = filepath.Join(home, ".vmlaunch")

	switch goos {
	case "darwin":
		p.ConfigDir = filepath.Join(home, "Library", "Application Support", "vmlaunch")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			p.ConfigDir = filepath.Join(xdgConfig, "vmlaunch")
		} else {
			p.ConfigDir = filepath.Join(home, ".config", "vmlaunch")
		}
	}

	p.ConfigFile = filepath.Join(p.DataDir, "config.yaml")
	return p
}

// Expand resolves a leading "~" in path against the home directory.
func (p *Paths) Expand(path string) string {
	switch {
	case path == "~":
		return p.Home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(p.Home, path[2:])
	default:
		return path
	}
}
