// Package unit maps VM names onto launchd unit definitions: the sanitized
// identifier, supervisor label and file layout, the plist itself, and the
// store that persists it.
package unit

import (
	"path/filepath"
	"strings"
)

const (
	// FileExt is the extension of every persisted unit definition.
	FileExt = ".plist"

	stdoutSuffix = ".out.log"
	stderrSuffix = ".err.log"
)

var separatorReplacer = strings.NewReplacer(":", "-", "/", "-")

// Sanitize converts a VM name into a path- and label-safe identifier.
// ':' and '/' become '-' and the result is lowercased. Distinct names may
// sanitize to the same identifier ("Demo:1.0" and "demo-1.0").
func Sanitize(name string) string {
	return strings.ToLower(separatorReplacer.Replace(name))
}

// Layout holds the fixed per-operator locations that unit files and log
// files are derived into.
type Layout struct {
	// Prefix is the namespace every supervisor label starts with.
	Prefix string

	// UnitDir holds the unit definition files.
	UnitDir string

	// LogDir holds the stdout/stderr log pair of every VM.
	LogDir string
}

// ID returns the sanitized identifier for name.
func (l Layout) ID(name string) string {
	return Sanitize(name)
}

// Label returns the supervisor label for name.
func (l Layout) Label(name string) string {
	return l.Prefix + "." + Sanitize(name)
}

// UnitPath returns the unit definition path for name.
func (l Layout) UnitPath(name string) string {
	return l.LabelPath(l.Label(name))
}

// LabelPath returns the unit definition path for an already derived label.
func (l Layout) LabelPath(label string) string {
	return filepath.Join(l.UnitDir, label+FileExt)
}

// LogPaths returns the stdout and stderr log paths for name.
func (l Layout) LogPaths(name string) (stdout, stderr string) {
	base := filepath.Join(l.LogDir, l.Label(name))
	return base + stdoutSuffix, base + stderrSuffix
}

// NameFromLabel strips the namespace prefix from label. It only recovers
// the sanitized identifier, so callers must prefer the VM name embedded in
// the unit definition when it can be read.
func (l Layout) NameFromLabel(label string) string {
	return strings.TrimPrefix(label, l.Prefix+".")
}

// OwnsLabel reports whether label belongs to this layout's namespace.
func (l Layout) OwnsLabel(label string) bool {
	id := strings.TrimPrefix(label, l.Prefix+".")
	return id != label && id != ""
}
