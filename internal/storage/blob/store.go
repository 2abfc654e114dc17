package blob

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Store persists audio blobs on the local filesystem. Objects are
// addressed by a relative path of the form <ownerID>/<name>, mirroring
// the layout of a flat object bucket.
type Store struct {
	root   string
	logger *logger.Logger
}

// NewStore creates a blob store rooted at the given directory,
// creating it if necessary.
func NewStore(root string, logger *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return &Store{
		root:   root,
		logger: logger.Named("blob"),
	}, nil
}

// Put writes data under the given object path, creating owner
// directories as needed.
func (s *Store) Put(path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	s.logger.Debug("Stored blob", logger.String("path", path), logger.Int("bytes", len(data)))
	return nil
}

// Open returns a reader for the object at path. The caller owns the
// returned ReadCloser.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", path, err)
	}
	return f, nil
}

// Get reads the entire object at path into memory.
func (s *Store) Get(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

// Remove deletes the object at path. Removing a missing object is not
// an error so that delete retries stay idempotent.
func (s *Store) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob %s: %w", path, err)
	}
	return nil
}

// Exists reports whether an object is present at path.
func (s *Store) Exists(path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", path, err)
	}
	return true, nil
}

// List returns the relative paths of every object in the store.
func (s *Store) List() ([]string, error) {
	return s.list(time.Time{})
}

// ListOlderThan returns the relative paths of objects last modified
// before the cutoff.
func (s *Store) ListOlderThan(cutoff time.Time) ([]string, error) {
	return s.list(cutoff)
}

func (s *Store) list(cutoff time.Time) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !cutoff.IsZero() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if !info.ModTime().Before(cutoff) {
				return nil
			}
		}
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	return paths, nil
}

// resolve maps an object path to an absolute filesystem path,
// rejecting anything that would escape the store root.
func (s *Store) resolve(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.root, cleaned), nil
}
