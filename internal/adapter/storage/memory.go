package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
)

var _ port.CartSlot = (*MemorySlot)(nil)

// A MemorySlot lives as long as the process.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

func (s *MemorySlot) Get(_ context.Context, key string) (string, error) {
	const op = "MemorySlot.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return v, nil
}

func (s *MemorySlot) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
