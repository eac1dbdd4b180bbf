package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lingap/internal/barangay/models"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
)

// InMemory keeps barangays in a map. It mirrors the Postgres store's
// uniqueness behavior so service tests exercise the same error paths.
type InMemory struct {
	mu        sync.RWMutex
	barangays map[id.BarangayID]*models.Barangay
}

func NewInMemory() *InMemory {
	return &InMemory{barangays: make(map[id.BarangayID]*models.Barangay)}
}

// CreateIfAvailable inserts the barangay unless its name (case-insensitive)
// or control code is already taken.
func (s *InMemory) CreateIfAvailable(_ context.Context, b *models.Barangay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(b.Name)
	for _, existing := range s.barangays {
		if strings.ToLower(existing.Name) == lowered || existing.ControlCode == b.ControlCode {
			return sentinel.ErrConflict
		}
	}

	clone := *b
	s.barangays[b.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, barangayID id.BarangayID) (*models.Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.barangays[barangayID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, b := range s.barangays {
		if strings.ToLower(b.Name) == lowered {
			clone := *b
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns all barangays sorted by name.
func (s *InMemory) List(_ context.Context) ([]*models.Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Barangay, 0, len(s.barangays))
	for _, b := range s.barangays {
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
