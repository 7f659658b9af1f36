package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for values no operation can work with.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs *multierror.Error
	add := func(field, format string, args ...any) {
		errs = multierror.Append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case c.LabelPrefix == "":
		add("label_prefix", "must not be empty")
	case strings.ContainsFunc(c.LabelPrefix, func(r rune) bool { return r == '/' || unicode.IsSpace(r) }):
		add("label_prefix", "must not contain '/' or whitespace, got %q", c.LabelPrefix)
	}

	dirs := []struct {
		field, value string
	}{
		{"unit_dir", c.UnitDir},
		{"log_dir", c.LogDir},
		{"cache_dir", c.CacheDir},
		{"lock_dir", c.LockDir},
	}
	for _, d := range dirs {
		if d.value == "" {
			add(d.field, "must not be empty")
		}
	}
	if c.TartPath == "" {
		add("tart_path", "must not be empty")
	}
	if c.LaunchctlPath == "" {
		add("launchctl_path", "must not be empty")
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"start_timeout", c.StartTimeout},
		{"stop_grace", c.StopGrace},
		{"runtime_stop_grace", c.RuntimeStopGrace},
		{"poll_interval", c.PollInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			add(d.field, "must be positive, got %s", d.value)
		}
	}
	if c.PollInterval > 0 {
		for _, d := range durations[:3] {
			if d.value > 0 && c.PollInterval > d.value {
				add("poll_interval", "%s exceeds %s (%s)", c.PollInterval, d.field, d.value)
			}
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		add("log_level", "%v", err)
	}

	if errs == nil {
		return nil
	}
	errs.ErrorFormat = FormatValidationErrors
	return errs
}

// FormatValidationErrors renders validation failures on one line.
func FormatValidationErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}
