package agent

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/containers/storage/pkg/lockfile"
)

// lock takes the advisory lock for name's sanitized identifier. Names that
// collide share a lock, matching the unit definition they share. The
// returned func releases it.
func (m *Manager) lock(op, name string) (func(), error) {
	if m.lockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(m.lockDir, 0o755); err != nil {
		return nil, ioError(op, name, fmt.Errorf("create lock dir: %w", err))
	}
	path := filepath.Join(m.lockDir, m.layout.ID(name)+".lock")
	lf, err := lockfile.GetLockFile(path)
	if err != nil {
		return nil, ioError(op, name, fmt.Errorf("open lock %s: %w", path, err))
	}
	lf.Lock()
	return lf.Unlock, nil
}
