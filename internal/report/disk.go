package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Load for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// DiskStore writes each RunResult as a JSON file in a directory. When no
// directory is given, a temp directory is created lazily on first use.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir. An empty dir selects a
// lazily-created temp directory that lives as long as the process cares.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Dir returns the directory runs are written to, creating it if needed.
func (s *DiskStore) Dir() (string, error) {
	return s.ensureDir()
}

// Save writes a RunResult as <id>.json. The file is written to a temp
// name first and renamed into place, so readers never see partial JSON.
func (s *DiskStore) Save(result *RunResult) error {
	if err := validID(result.ID); err != nil {
		return err
	}
	dir, err := s.ensureDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", result.ID, err)
	}

	tmp, err := os.CreateTemp(dir, result.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing run %s: %w", result.ID, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing run %s: %w", result.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing run %s: %w", result.ID, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, result.ID+".json")); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing run %s: %w", result.ID, err)
	}
	return nil
}

// Load reads a RunResult from disk.
func (s *DiskStore) Load(runID string) (*RunResult, error) {
	if err := validID(runID); err != nil {
		return nil, err
	}
	dir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, runID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshalling run %s: %w", runID, err)
	}
	return &result, nil
}

// List returns up to limit runs, newest first. Files that fail to parse
// are skipped. A limit <= 0 returns every run.
func (s *DiskStore) List(limit int) ([]*RunResult, error) {
	dir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var runs []*RunResult
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		r, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		runs = append(runs, r)
	}

	slices.SortFunc(runs, func(a, b *RunResult) int {
		return b.Started.Compare(a.Started)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir == "" {
		dir, err := os.MkdirTemp("", "reword-runs-*")
		if err != nil {
			return "", fmt.Errorf("creating run directory: %w", err)
		}
		s.dir = dir
		return dir, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	return s.dir, nil
}

// validID rejects IDs that are not UUIDs, which also keeps callers from
// reaching outside the store directory.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid run id %q", id)
	}
	return nil
}
