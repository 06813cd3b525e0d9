package contextopt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/auraihq/aurai/internal/logging"
)

// DirStore persists externalized content as uniquely named files under a
// single directory. Names are random, never content-derived, so repeated
// identical content always produces a fresh blob.
type DirStore struct {
	dir    string
	logger *logging.Logger
}

// NewDirStore creates a store rooted at dir, defaulting to a fixed
// subdirectory of the system temp dir.
func NewDirStore(dir string, logger *logging.Logger) *DirStore {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "aurai_files")
	}
	return &DirStore{dir: dir, logger: logger}
}

// Save writes content to a new blob file and returns its path.
func (s *DirStore) Save(content string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	name := fmt.Sprintf("context_%s.md", uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", name, err)
	}

	s.logger.Infof("cached oversized content to %s (%d chars)", path, len(content))
	return path, nil
}

// Cleanup removes all blob files. Best effort; failures are logged and
// swallowed.
func (s *DirStore) Cleanup() {
	matches, err := filepath.Glob(filepath.Join(s.dir, "context_*.*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			s.logger.Warnf("remove blob %s: %v", path, err)
		}
	}
}

var _ BlobStore = (*DirStore)(nil)
