package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/habiliai/aurora/entity"
	"github.com/habiliai/aurora/internal/sliceutils"
)

type (
	// Store is the dialogue log.
	Store interface {
		Append(ctx context.Context, message *entity.Message) error
		// Recent returns up to n latest messages, oldest first.
		Recent(ctx context.Context, n int) ([]entity.Message, error)
		// LastUserMessageTime is nil when the user never spoke.
		LastUserMessageTime(ctx context.Context) (*time.Time, error)
		Clear(ctx context.Context) error
	}

	InMemoryStore struct {
		mu       sync.RWMutex
		messages []entity.Message
		nextID   uint
	}
)

var (
	_ Store = (*InMemoryStore)(nil)
)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, message *entity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	message.ID = s.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	message.UpdatedAt = message.CreatedAt
	s.messages = append(s.messages, *message)

	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, n int) ([]entity.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(sliceutils.Last(s.messages, n)), nil
}

func (s *InMemoryStore) LastUserMessageTime(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == entity.RoleUser {
			t := s.messages[i].CreatedAt
			return &t, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return nil
}
