package datastore

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const chainIDFile = ".chainId"

// FileArtifactStore persists the artifacts of one network as JSON files in a directory, one
// <Name>.json file per artifact plus a .chainId file recording the chain the directory belongs to.
type FileArtifactStore struct {
	mu      sync.RWMutex
	dir     string
	chainID uint64
}

var _ MutableArtifactStore = &FileArtifactStore{}

// NewFileArtifactStore opens the artifact directory of a network, creating it when missing. It
// fails when the directory already belongs to a different chain.
func NewFileArtifactStore(dir string, chainID uint64) (*FileArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create deployments directory: %w", err)
	}

	idPath := filepath.Join(dir, chainIDFile)
	data, err := os.ReadFile(idPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = os.WriteFile(idPath, []byte(strconv.FormatUint(chainID, 10)), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write chain id file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read chain id file: %w", err)
	default:
		got, perr := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("invalid chain id file %s: %w", idPath, perr)
		}
		if got != chainID {
			return nil, fmt.Errorf("deployments directory %s belongs to chain %d, not %d", dir, got, chainID)
		}
	}

	return &FileArtifactStore{dir: dir, chainID: chainID}, nil
}

// Dir returns the directory of the store.
func (s *FileArtifactStore) Dir() string {
	return s.dir
}

func (s *FileArtifactStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Get returns the artifact stored under name, or an error if no such artifact exists.
func (s *FileArtifactStore) Get(name string) (DeployedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(s.path(name))
}

func (s *FileArtifactStore) read(path string) (DeployedArtifact, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DeployedArtifact{}, ErrArtifactNotFound
	}
	if err != nil {
		return DeployedArtifact{}, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact DeployedArtifact
	if err = json.Unmarshal(data, &artifact); err != nil {
		return DeployedArtifact{}, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}

	return artifact, nil
}

// Fetch returns every artifact in the directory, sorted by name.
func (s *FileArtifactStore) Fetch() ([]DeployedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}

	records := make([]DeployedArtifact, 0, len(paths))
	for _, p := range paths {
		artifact, err := s.read(p)
		if err != nil {
			return nil, err
		}

		records = append(records, artifact)
	}
	slices.SortFunc(records, func(a, b DeployedArtifact) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return records, nil
}

// Add writes a new artifact. If an artifact with the same name already exists, an error is
// returned.
func (s *FileArtifactStore) Add(artifact DeployedArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(artifact.Name)); err == nil {
		return ErrArtifactExists
	}

	return s.write(artifact)
}

// Upsert writes the artifact, replacing any artifact with the same name.
func (s *FileArtifactStore) Upsert(artifact DeployedArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(artifact)
}

func (s *FileArtifactStore) write(artifact DeployedArtifact) error {
	record, err := artifact.normalize()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", record.Name, err)
	}

	// Written through a temporary file and renamed into place.
	tmp := s.path(record.Name) + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", record.Name, err)
	}

	return os.Rename(tmp, s.path(record.Name))
}

// Delete removes the artifact stored under name, returning an error if no such artifact exists.
func (s *FileArtifactStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrArtifactNotFound
	}

	return err
}

// Reset removes every artifact file. The chain id file is kept.
func (s *FileArtifactStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return err
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return err
		}
	}

	return nil
}
