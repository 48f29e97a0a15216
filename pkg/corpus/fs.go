package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FSStore persists testcases as individual files under a directory,
// named by digest. The default backend, used when no object store is
// configured.
type FSStore struct {
	dir string
}

// NewFSStore creates (if needed) and returns a filesystem-backed Store
// rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("corpus: create directory %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path(digest string) string {
	return filepath.Join(s.dir, digest)
}

func (s *FSStore) Put(ctx context.Context, digest string, data []byte) error {
	if err := os.WriteFile(s.path(digest), data, 0o644); err != nil {
		return fmt.Errorf("corpus: write %s: %w", digest, err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, digest string) ([]byte, error) {
	data, err := os.ReadFile(s.path(digest))
	if err != nil {
		return nil, fmt.Errorf("corpus: read %s: %w", digest, err)
	}
	return data, nil
}

func (s *FSStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: list %s: %w", s.dir, err)
	}
	digests := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			digests = append(digests, e.Name())
		}
	}
	sort.Strings(digests)
	return digests, nil
}
