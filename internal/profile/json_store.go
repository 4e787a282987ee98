package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	dataFileName   = "data.json"
	legacyFileName = "project.json"

	dirPermissions  = 0750
	filePermissions = 0600
)

// JSONStore keeps AppData in <dir>/data.json.
//
// Thread Safety: methods are serialised by an internal mutex. Separate
// processes sharing a directory are not coordinated.
type JSONStore struct {
	mu         sync.Mutex
	dataPath   string
	legacyPath string
}

// NewJSONStore returns a store rooted at dir, creating dir if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &JSONStore{
		dataPath:   filepath.Join(dir, dataFileName),
		legacyPath: filepath.Join(dir, legacyFileName),
	}, nil
}

// Path returns the location of data.json.
func (s *JSONStore) Path() string {
	return s.dataPath
}

// Load reads data.json. If it is missing but a legacy project.json exists,
// the project is converted into a single connection, saved as data.json and
// the legacy file removed.
func (s *JSONStore) Load(_ context.Context) (AppData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.dataPath)
	switch {
	case err == nil:
		var data AppData
		if err := json.Unmarshal(raw, &data); err != nil {
			return AppData{}, fmt.Errorf("parsing %s: %w", s.dataPath, err)
		}
		return data, nil
	case !errors.Is(err, fs.ErrNotExist):
		return AppData{}, fmt.Errorf("reading %s: %w", s.dataPath, err)
	}

	data, migrated, err := s.migrateLegacy()
	if err != nil || !migrated {
		return data, err
	}
	if err := s.write(data); err != nil {
		return AppData{}, err
	}
	if err := os.Remove(s.legacyPath); err != nil {
		return AppData{}, fmt.Errorf("removing %s: %w", s.legacyPath, err)
	}
	return data, nil
}

// migrateLegacy converts project.json if present. migrated is false when
// there is no legacy file.
func (s *JSONStore) migrateLegacy() (data AppData, migrated bool, err error) {
	raw, err := os.ReadFile(s.legacyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return AppData{}, false, nil
	}
	if err != nil {
		return AppData{}, false, fmt.Errorf("reading %s: %w", s.legacyPath, err)
	}

	var project legacyProject
	if err := json.Unmarshal(raw, &project); err != nil {
		return AppData{}, false, fmt.Errorf("parsing %s: %w", s.legacyPath, err)
	}

	id := uuid.NewString()
	return AppData{
		Connections:      []Connection{project.toConnection(id)},
		LastConnectionID: id,
	}, true, nil
}

// Save writes data.json, replacing it atomically.
func (s *JSONStore) Save(_ context.Context, data AppData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

func (s *JSONStore) write(data AppData) error {
	if data.Connections == nil {
		data.Connections = []Connection{}
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding app data: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.dataPath), dataFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.dataPath); err != nil {
		return fmt.Errorf("replacing %s: %w", s.dataPath, err)
	}
	return nil
}

// Delete removes data.json and any legacy project.json.
func (s *JSONStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []string{s.dataPath, s.legacyPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return nil
}
