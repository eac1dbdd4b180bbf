package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InMemory is a Store for tests and local development. URLs are synthetic
// but stable, so round-trips through the registry behave like production.
type InMemory struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{assets: make(map[string][]byte)}
}

func (s *InMemory) Upload(_ context.Context, data []byte, folderHint string) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	externalID := uuid.NewString()
	s.assets[externalID] = append([]byte(nil), data...)
	return Asset{
		URL:        fmt.Sprintf("memory://%s/%s", folderHint, externalID),
		ExternalID: externalID,
	}, nil
}

func (s *InMemory) Destroy(_ context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, externalID)
	return nil
}

// Len reports how many assets are held; used by tests to assert cleanup.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}
