package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lingap/internal/schema/models"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
)

// InMemory keeps the intake schema in maps. It mirrors the Postgres store's
// uniqueness behavior on field name and label.
type InMemory struct {
	mu     sync.RWMutex
	fields map[id.FieldID]*models.FieldDefinition
	groups map[string]*models.FieldGroup
}

func NewInMemory() *InMemory {
	return &InMemory{
		fields: make(map[id.FieldID]*models.FieldDefinition),
		groups: make(map[string]*models.FieldGroup),
	}
}

// CreateFieldIfAvailable inserts the field unless its name or label
// (case-insensitive) is already taken.
func (s *InMemory) CreateFieldIfAvailable(_ context.Context, def *models.FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(def.Name)
	label := strings.ToLower(def.Label)
	for _, existing := range s.fields {
		if strings.ToLower(existing.Name) == name || strings.ToLower(existing.Label) == label {
			return sentinel.ErrConflict
		}
	}

	clone := *def
	clone.Options = append([]string(nil), def.Options...)
	s.fields[def.ID] = &clone
	return nil
}

func (s *InMemory) DeleteField(_ context.Context, fieldID id.FieldID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fields[fieldID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.fields, fieldID)
	return nil
}

// ListFields returns the schema ordered by group, then display order, then name.
func (s *InMemory) ListFields(_ context.Context) ([]*models.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.FieldDefinition, 0, len(s.fields))
	for _, def := range s.fields {
		clone := *def
		clone.Options = append([]string(nil), def.Options...)
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupKey != out[j].GroupKey {
			return out[i].GroupKey < out[j].GroupKey
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// NextDisplayOrder returns one past the highest display order in the group.
func (s *InMemory) NextDisplayOrder(_ context.Context, groupKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := 1
	for _, def := range s.fields {
		if def.GroupKey == groupKey && def.DisplayOrder >= next {
			next = def.DisplayOrder + 1
		}
	}
	return next, nil
}

// SaveGroup inserts or updates an intake-form section.
func (s *InMemory) SaveGroup(_ context.Context, group *models.FieldGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *group
	s.groups[group.Key] = &clone
	return nil
}

// ListGroups returns sections ordered by display order, then key.
func (s *InMemory) ListGroups(_ context.Context) ([]*models.FieldGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.FieldGroup, 0, len(s.groups))
	for _, g := range s.groups {
		clone := *g
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}
