package cli

import (
	"errors"
	"fmt"

	"github.com/javanstorm/vmlaunch/internal/agent"
)

// Exit codes are a stable contract for scripts.
const (
	ExitOK           = 0
	ExitUsage        = 2 // unknown command, flag or argument count
	ExitNotInstalled = 3 // the VM has no installed unit
	ExitConflict     = 5 // already installed, already running, not running
	ExitFailure      = 6 // prerequisite, I/O or external tool failure
	ExitEmptyName    = 7 // the VM name argument was empty
)

// usageError is a command-line mistake caught before any operation ran.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func configError(err error) error {
	return &agent.Error{Kind: agent.KindValidation, Op: "config", Err: err}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		return ExitUsage
	}
	if errors.Is(err, agent.ErrEmptyName) {
		return ExitEmptyName
	}

	switch agent.KindOf(err) {
	case agent.KindValidation:
		return ExitUsage
	case agent.KindConflict:
		if agent.ConflictOf(err) == agent.NotInstalled {
			return ExitNotInstalled
		}
		return ExitConflict
	default:
		return ExitFailure
	}
}
