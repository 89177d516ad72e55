package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when no decision exists for a resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidResource is returned for an empty resource name.
	ErrInvalidResource = errors.New("invalid resource")
)

// FileName is the name of the decisions file inside the config directory.
const FileName = "permissions.json"

// data represents the JSON file structure.
type data struct {
	Decisions []Decision `json:"decisions"`
}

// JSONStore implements DecisionStore using JSON file persistence.
type JSONStore struct {
	mu   sync.RWMutex
	path string
	data *data
}

// NewJSONStore creates a new JSON file-based store in configDir.
func NewJSONStore(configDir string) (*JSONStore, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	s := &JSONStore{
		path: filepath.Join(configDir, FileName),
		data: &data{Decisions: []Decision{}},
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Path returns the file backing the store.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) load() error {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, s.data)
}

// save writes to a temp file and renames it into place.
func (s *JSONStore) save() error {
	content, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close is a no-op; every mutation is written through.
func (s *JSONStore) Close() error {
	return nil
}

// Get retrieves the decision for resource.
func (s *JSONStore) Get(_ context.Context, resource string) (*Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Decisions {
		if s.data.Decisions[i].Resource == resource {
			d := s.data.Decisions[i]
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

// Put creates or replaces a decision.
func (s *JSONStore) Put(_ context.Context, d *Decision) error {
	if d == nil || strings.TrimSpace(d.Resource) == "" {
		return ErrInvalidResource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Decisions {
		if s.data.Decisions[i].Resource == d.Resource {
			s.data.Decisions[i] = *d
			return s.save()
		}
	}
	s.data.Decisions = append(s.data.Decisions, *d)
	return s.save()
}

// Reset removes the decision for resource.
func (s *JSONStore) Reset(_ context.Context, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Decisions {
		if s.data.Decisions[i].Resource == resource {
			s.data.Decisions = append(s.data.Decisions[:i], s.data.Decisions[i+1:]...)
			return s.save()
		}
	}
	return nil
}

// List returns all decisions sorted by resource.
func (s *JSONStore) List(_ context.Context) ([]Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Decision, len(s.data.Decisions))
	copy(result, s.data.Decisions)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Resource < result[j].Resource
	})
	return result, nil
}
