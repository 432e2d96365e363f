package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/request-analytics/internal/domain"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]domain.User
}

// NewMemoryUserRepository serves users from an in-process map.
func NewMemoryUserRepository(users ...domain.User) UserRepository {
	m := &memoryUserRepository{users: make(map[int64]domain.User, len(users))}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

// NewMockUserRepository returns the repository seeded with the demo fixtures.
func NewMockUserRepository() UserRepository {
	return NewMemoryUserRepository(MockUsers()...)
}

// MockUsers are the demo accounts, mirrored by migrations/0001_users.sql.
func MockUsers() []domain.User {
	return []domain.User{
		{
			ID:        1,
			Username:  "alice",
			Email:     "alice@example.com",
			CreatedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			IsActive:  true,
		},
		{
			ID:        2,
			Username:  "bob",
			Email:     "bob@example.com",
			CreatedAt: time.Date(2025, 3, 22, 14, 0, 0, 0, time.UTC),
			IsActive:  false,
		},
	}
}

func (m *memoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
