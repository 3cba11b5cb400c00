package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// FileStore implements Store as a YAML file with one mapping per profile.
// Every Set and Delete is written through to disk.
type FileStore struct {
	path string
	mu   sync.RWMutex
	data map[string]map[string]string
}

var _ Store = (*FileStore)(nil)

// DefaultPath returns <user config dir>/pbpup/profiles.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "pbpup", "profiles.yaml"), nil
}

// NewFileStore opens the store at path. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	s := &FileStore{path: path, data: map[string]map[string]string{}}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load profiles from %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var data map[string]map[string]string
	if err := yaml.Unmarshal(b, &data); err != nil {
		return err
	}
	if data != nil {
		s.data = data
	}
	return nil
}

// save must be called with mu held.
func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	b, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace profiles file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(profile, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[profile][key]
	return v, ok
}

func (s *FileStore) Set(profile, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[profile] == nil {
		s.data[profile] = map[string]string{}
	}
	s.data[profile][key] = value
	return s.save()
}

func (s *FileStore) Delete(profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[profile]; !ok {
		return nil
	}
	delete(s.data, profile)
	return s.save()
}

// ListProfiles returns the profile names in sorted order.
func (s *FileStore) ListProfiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := lo.Keys(s.data)
	sort.Strings(names)
	return names
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}
