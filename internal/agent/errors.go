package agent

import (
	"errors"
	"fmt"
)

// Kind classifies a lifecycle failure.
type Kind int

const (
	KindValidation   Kind = iota + 1 // bad operator input, nothing was touched
	KindPrerequisite                 // host cannot run vmlaunch at all
	KindConflict                     // current state does not allow the operation
	KindIO                           // unit definition or directory I/O failed
	KindExternalTool                 // launchctl or tart returned an error
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrerequisite:
		return "prerequisite"
	case KindConflict:
		return "state conflict"
	case KindIO:
		return "i/o"
	case KindExternalTool:
		return "external tool"
	default:
		return "unknown"
	}
}

// Conflict names the state mismatch behind a KindConflict error.
type Conflict int

const (
	NoConflict Conflict = iota
	NotInstalled
	AlreadyInstalled
	AlreadyRunning
	NotRunning
)

func (c Conflict) String() string {
	switch c {
	case NotInstalled:
		return "not installed"
	case AlreadyInstalled:
		return "already installed"
	case AlreadyRunning:
		return "already running"
	case NotRunning:
		return "not running"
	default:
		return "none"
	}
}

// Error is returned by every lifecycle operation.
type Error struct {
	Kind     Kind
	Conflict Conflict

	// Op is the operation that failed ("install", "start", ...).
	Op string

	// Name is the VM name the operation was invoked with.
	Name string

	Err error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Err != nil:
		msg = e.Err.Error()
	case e.Conflict != NoConflict:
		msg = e.Conflict.String()
	default:
		msg = e.Kind.String() + " error"
	}
	switch {
	case e.Op != "" && e.Name != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Name, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, and by Conflict when the target sets
// one. This lets callers test against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Conflict == NoConflict || t.Conflict == e.Conflict
}

// Sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrPrerequisite = &Error{Kind: KindPrerequisite}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrIO           = &Error{Kind: KindIO}
	ErrExternalTool = &Error{Kind: KindExternalTool}

	ErrNotInstalled     = &Error{Kind: KindConflict, Conflict: NotInstalled}
	ErrAlreadyInstalled = &Error{Kind: KindConflict, Conflict: AlreadyInstalled}
	ErrAlreadyRunning   = &Error{Kind: KindConflict, Conflict: AlreadyRunning}
	ErrNotRunning       = &Error{Kind: KindConflict, Conflict: NotRunning}
)

// ErrEmptyName is wrapped by the validation error for an empty VM name.
var ErrEmptyName = errors.New("VM name must not be empty")

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ConflictOf returns the Conflict of the first *Error in err's chain.
func ConflictOf(err error) Conflict {
	var e *Error
	if errors.As(err, &e) {
		return e.Conflict
	}
	return NoConflict
}

// Prerequisite wraps err as a KindPrerequisite failure.
func Prerequisite(err error) error {
	return &Error{Kind: KindPrerequisite, Err: err}
}

func validationError(op, name string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Name: name, Err: err}
}

func conflictError(op, name string, c Conflict, format string, args ...any) error {
	return &Error{Kind: KindConflict, Conflict: c, Op: op, Name: name, Err: fmt.Errorf(format, args...)}
}

func ioError(op, name string, err error) error {
	return &Error{Kind: KindIO, Op: op, Name: name, Err: err}
}

func toolError(op, name string, err error) error {
	return &Error{Kind: KindExternalTool, Op: op, Name: name, Err: err}
}
