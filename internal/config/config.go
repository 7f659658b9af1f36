package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all vmlaunch configuration.
type Config struct {
	// LabelPrefix is the supervisor label namespace of every VM unit.
	LabelPrefix string `mapstructure:"label_prefix"`

	// UnitDir is the per-user launchd agents directory.
	UnitDir string `mapstructure:"unit_dir"`

	// LogDir receives each VM's stdout/stderr log pair.
	LogDir string `mapstructure:"log_dir"`

	// CacheDir is shared with every VM as a read-write directory.
	CacheDir string `mapstructure:"cache_dir"`

	// LockDir holds the per-VM advisory lock files.
	LockDir string `mapstructure:"lock_dir"`

	// TartPath is the VM runtime executable.
	TartPath string `mapstructure:"tart_path"`

	// LaunchctlPath is the supervisor control executable.
	LaunchctlPath string `mapstructure:"launchctl_path"`

	// RunAtLoad makes launchd boot a VM as soon as its unit is registered,
	// including at login.
	RunAtLoad bool `mapstructure:"run_at_load"`

	StartTimeout     time.Duration `mapstructure:"start_timeout"`
	StopGrace        time.Duration `mapstructure:"stop_grace"`
	RuntimeStopGrace time.Duration `mapstructure:"runtime_stop_grace"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`

	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	paths, err := GetPaths()
	if err != nil {
		// Fallback if we can't determine home directory
		paths = pathsFor("/tmp/vmlaunch", "darwin")
	}
	return defaultsFor(paths)
}

func defaultsFor(paths *Paths) *Config {
	return &Config{
		LabelPrefix:      "com.vmlaunch.vm",
		UnitDir:          filepath.Join(paths.Home, "Library", "LaunchAgents"),
		LogDir:           filepath.Join(paths.Home, "Library", "Logs", "vmlaunch"),
		CacheDir:         filepath.Join(paths.DataDir, "cache"),
		LockDir:          filepath.Join(paths.DataDir, "locks"),
		TartPath:         "tart",
		LaunchctlPath:    "launchctl",
		RunAtLoad:        false,
		StartTimeout:     30 * time.Second,
		StopGrace:        15 * time.Second,
		RuntimeStopGrace: 15 * time.Second,
		PollInterval:     time.Second,
		LogLevel:         "warn",
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from file, environment, and defaults into
// Global.
func Load() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}
	cfg, err := LoadFrom(viper.New(), paths)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

// LoadFrom reads configuration through v, searching the config directories
// of paths, and validates the result.
func LoadFrom(v *viper.Viper, paths *Paths) (*Config, error) {
	defaults := defaultsFor(paths)
	v.SetDefault("label_prefix", defaults.LabelPrefix)
	v.SetDefault("unit_dir", defaults.UnitDir)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("lock_dir", defaults.LockDir)
	v.SetDefault("tart_path", defaults.TartPath)
	v.SetDefault("launchctl_path", defaults.LaunchctlPath)
	v.SetDefault("run_at_load", defaults.RunAtLoad)
	v.SetDefault("start_timeout", defaults.StartTimeout)
	v.SetDefault("stop_grace", defaults.StopGrace)
	v.SetDefault("runtime_stop_grace", defaults.RuntimeStopGrace)
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(paths.DataDir)
	v.AddConfigPath(paths.ConfigDir)

	// Environment variable support: VMLAUNCH_UNIT_DIR, VMLAUNCH_START_TIMEOUT, etc.
	v.SetEnvPrefix("VMLAUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for _, dir := range []*string{&cfg.UnitDir, &cfg.LogDir, &cfg.CacheDir, &cfg.LockDir} {
		*dir = paths.Expand(*dir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}
