package unit

import (
	"errors"
	"fmt"

	"howett.net/plist"
)

// NameEnvKey is the environment key the original VM name is embedded under.
// launchd passes it through to the VM process, and List reads it back to
// recover names that sanitization made ambiguous.
const NameEnvKey = "VMLAUNCH_VM_NAME"

// ErrMalformed is returned when a stored definition cannot be decoded.
var ErrMalformed = errors.New("unit: malformed definition")

// KeepAlive is launchd's restart policy dictionary.
type KeepAlive struct {
	// SuccessfulExit false restarts the job only after a non-zero exit.
	SuccessfulExit bool `plist:"SuccessfulExit"`
}

// Definition is one launchd job, persisted as a property list.
type Definition struct {
	Label                string            `plist:"Label"`
	ProgramArguments     []string          `plist:"ProgramArguments"`
	RunAtLoad            bool              `plist:"RunAtLoad"`
	KeepAlive            KeepAlive         `plist:"KeepAlive"`
	StandardOutPath      string            `plist:"StandardOutPath"`
	StandardErrorPath    string            `plist:"StandardErrorPath"`
	EnvironmentVariables map[string]string `plist:"EnvironmentVariables,omitempty"`
}

// Params describes the job to generate for one VM.
type Params struct {
	// Name is the VM name, embedded verbatim.
	Name string

	// Program is the full argv of the VM runtime's run command.
	Program []string

	// RunAtLoad starts the job as soon as it is registered.
	RunAtLoad bool
}

// Generate builds the unit definition for p within the layout.
func (l Layout) Generate(p Params) *Definition {
	stdout, stderr := l.LogPaths(p.Name)
	return &Definition{
		Label:             l.Label(p.Name),
		ProgramArguments:  append([]string(nil), p.Program...),
		RunAtLoad:         p.RunAtLoad,
		KeepAlive:         KeepAlive{SuccessfulExit: false},
		StandardOutPath:   stdout,
		StandardErrorPath: stderr,
		EnvironmentVariables: map[string]string{
			NameEnvKey: p.Name,
		},
	}
}

// VMName returns the VM name embedded in the definition, or "" when absent.
func (d *Definition) VMName() string {
	if d == nil {
		return ""
	}
	return d.EnvironmentVariables[NameEnvKey]
}

// Encode renders d as an XML property list.
func Encode(d *Definition) ([]byte, error) {
	if d.Label == "" {
		return nil, fmt.Errorf("encode unit: empty label")
	}
	data, err := plist.MarshalIndent(d, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("encode unit %s: %w", d.Label, err)
	}
	return data, nil
}

// Decode parses a property list produced by Encode (or edited by hand in
// any plist format launchd accepts).
func Decode(data []byte) (*Definition, error) {
	var d Definition
	if _, err := plist.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d.Label == "" {
		return nil, fmt.Errorf("%w: missing Label", ErrMalformed)
	}
	return &d, nil
}
