package unit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/containers/storage/pkg/ioutils"
)

// ErrNotFound is returned when no definition exists for a label.
var ErrNotFound = errors.New("unit: definition not found")

// Store persists unit definitions keyed by supervisor label.
type Store interface {
	// Path returns where the definition for label lives. The supervisor
	// is handed this path on registration.
	Path(label string) string

	// Exists reports whether a definition is stored for label.
	Exists(label string) bool

	// Get loads the definition for label.
	Get(label string) (*Definition, error)

	// Put writes d, replacing any previous definition. Writes are
	// all-or-nothing.
	Put(d *Definition) error

	// Delete removes the definition for label. Deleting a missing
	// definition is not an error.
	Delete(label string) error

	// List returns the labels of every stored definition in the layout's
	// namespace, sorted.
	List() ([]string, error)
}

// FileStore keeps definitions as plist files in the layout's unit directory.
type FileStore struct {
	layout Layout
}

// NewFileStore creates a store over layout.UnitDir. The directory is not
// created; callers ensure it before Put.
func NewFileStore(layout Layout) *FileStore {
	return &FileStore{layout: layout}
}

// Path returns the plist path for label.
func (s *FileStore) Path(label string) string {
	return s.layout.LabelPath(label)
}

// Exists reports whether the plist for label is present.
func (s *FileStore) Exists(label string) bool {
	_, err := os.Stat(s.Path(label))
	return err == nil
}

// Get reads and decodes the plist for label.
func (s *FileStore) Get(label string) (*Definition, error) {
	data, err := os.ReadFile(s.Path(label))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("read unit %s: %w", label, err)
	}
	return Decode(data)
}

// Put atomically writes d. It fails if the unit directory does not exist.
func (s *FileStore) Put(d *Definition) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}
	if err := ioutils.AtomicWriteFile(s.Path(d.Label), data, 0o644); err != nil {
		return fmt.Errorf("write unit %s: %w", d.Label, err)
	}
	return nil
}

// Delete removes the plist for label.
func (s *FileStore) Delete(label string) error {
	if err := os.Remove(s.Path(label)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove unit %s: %w", label, err)
	}
	return nil
}

// List scans the unit directory for plists carrying the layout prefix.
// A missing directory means nothing is installed.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.layout.UnitDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	var labels []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExt) {
			continue
		}
		label := strings.TrimSuffix(e.Name(), FileExt)
		if s.layout.OwnsLabel(label) {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// MemStore is an in-memory Store. Definitions are kept encoded so they go
// through the same codec as files.
type MemStore struct {
	layout Layout

	mu    sync.Mutex
	units map[string][]byte

	// PutErr, when set, is returned by every Put.
	PutErr error
}

// NewMemStore creates an empty in-memory store for layout.
func NewMemStore(layout Layout) *MemStore {
	return &MemStore{layout: layout, units: make(map[string][]byte)}
}

// Path returns the path the definition would have on disk.
func (s *MemStore) Path(label string) string {
	return s.layout.LabelPath(label)
}

// Exists reports whether label is stored.
func (s *MemStore) Exists(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.units[label]
	return ok
}

// Get decodes the stored definition for label.
func (s *MemStore) Get(label string) (*Definition, error) {
	s.mu.Lock()
	data, ok := s.units[label]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, label)
	}
	return Decode(data)
}

// Put encodes and stores d.
func (s *MemStore) Put(d *Definition) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := Encode(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[d.Label] = data
	return nil
}

// PutRaw stores data verbatim under label, bypassing the codec.
func (s *MemStore) PutRaw(label string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[label] = data
}

// Delete removes label.
func (s *MemStore) Delete(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, label)
	return nil
}

// List returns the stored labels in the layout namespace, sorted.
func (s *MemStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var labels []string
	for label := range s.units {
		if s.layout.OwnsLabel(label) {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}
