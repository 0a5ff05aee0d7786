package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Store persists entries as one JSON file each under:
//
//	<baseDir>/dispatches/<id>.json
//
// Writes are atomic and durable (temp file, fsync, rename, dir fsync).
type Store struct {
	baseDir string

	// OnError, if set, is told about failed writes from Record.
	OnError func(error)
}

func NewStore(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("baseDir is required")
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) dir() string {
	return filepath.Join(s.baseDir, "dispatches")
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir(), id+".json")
}

// Save writes entry. The ID must be a UUID so it is safe as a filename.
func (s *Store) Save(entry Entry) error {
	if s == nil {
		return errors.New("nil Store")
	}
	if _, err := uuid.Parse(entry.ID); err != nil {
		return fmt.Errorf("entry id %q: %w", entry.ID, err)
	}
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return writeFileAtomicDurable(s.path(entry.ID), b, 0o644)
}

// Record implements Sink.
func (s *Store) Record(entry Entry) {
	if err := s.Save(entry); err != nil && s != nil && s.OnError != nil {
		s.OnError(err)
	}
}

// Load reads a single entry by ID.
func (s *Store) Load(id string) (Entry, error) {
	if s == nil {
		return Entry{}, errors.New("nil Store")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Entry{}, fmt.Errorf("entry id %q: %w", id, err)
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return e, nil
}

// List returns every stored entry ordered by start time, then ID.
func (s *Store) List() ([]Entry, error) {
	if s == nil {
		return nil, errors.New("nil Store")
	}
	dirEntries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		e, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func writeFileAtomicDurable(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
