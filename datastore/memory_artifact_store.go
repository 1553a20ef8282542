package datastore

import (
	"cmp"
	"slices"
	"sync"
)

// MemoryArtifactStore is an in-memory implementation of the MutableArtifactStore interface.
type MemoryArtifactStore struct {
	mu      sync.RWMutex
	Records []DeployedArtifact `json:"records"`
}

var _ MutableArtifactStore = &MemoryArtifactStore{}

// NewMemoryArtifactStore creates a new empty MemoryArtifactStore.
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{Records: []DeployedArtifact{}}
}

// Get returns the artifact stored under name, or an error if no such artifact exists.
func (s *MemoryArtifactStore) Get(name string) (DeployedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(name)
	if idx == -1 {
		return DeployedArtifact{}, ErrArtifactNotFound
	}

	return s.Records[idx].Clone()
}

// Fetch returns a copy of all artifacts in the store, sorted by name.
func (s *MemoryArtifactStore) Fetch() ([]DeployedArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]DeployedArtifact, 0, len(s.Records))
	for _, record := range s.Records {
		record, err := record.Clone()
		if err != nil {
			return []DeployedArtifact{}, err
		}

		records = append(records, record)
	}
	slices.SortFunc(records, func(a, b DeployedArtifact) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return records, nil
}

// indexOf returns the index of the record with the provided name, or -1 if no such record exists.
func (s *MemoryArtifactStore) indexOf(name string) int {
	return slices.IndexFunc(s.Records, func(r DeployedArtifact) bool {
		return r.Key() == name
	})
}

// Add inserts a new artifact into the store.
// If an artifact with the same name already exists, an error is returned.
func (s *MemoryArtifactStore) Add(artifact DeployedArtifact) error {
	record, err := artifact.normalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.Name) != -1 {
		return ErrArtifactExists
	}
	s.Records = append(s.Records, record)

	return nil
}

// Upsert inserts a new artifact into the store if no artifact with the same name already exists.
// If one exists, it is replaced.
func (s *MemoryArtifactStore) Upsert(artifact DeployedArtifact) error {
	record, err := artifact.normalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Name)
	if idx == -1 {
		s.Records = append(s.Records, record)
		return nil
	}
	s.Records[idx] = record

	return nil
}

// Delete deletes the artifact stored under name, returning an error if no such artifact exists.
func (s *MemoryArtifactStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(name)
	if idx == -1 {
		return ErrArtifactNotFound
	}
	s.Records = slices.Delete(s.Records, idx, idx+1)

	return nil
}

// Reset removes every artifact from the store.
func (s *MemoryArtifactStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Records = []DeployedArtifact{}

	return nil
}
