package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/gateway/app"
)

// MemoryUserStore is an in-process app.UserStore for local development
// and tests. It mirrors the DynamoDB store's semantics: numeric IDs from
// a counter, atomic name uniqueness on insert.
type MemoryUserStore struct {
	mu     sync.Mutex
	byID   map[int64]app.UserRecord
	byName map[string]int64
	nextID int64
	clock  domain.Clock
}

var _ app.UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore(clock domain.Clock) *MemoryUserStore {
	return &MemoryUserStore{
		byID:   make(map[int64]app.UserRecord),
		byName: make(map[string]int64),
		clock:  clock,
	}
}

// GetByID returns the user with the given ID, or domain.ErrNotFound.
func (s *MemoryUserStore) GetByID(_ context.Context, userID int64) (*app.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[userID]
	if !ok {
		return nil, fmt.Errorf("memory user store: get by id: %w", domain.ErrNotFound)
	}
	return &record, nil
}

// FindByName returns the user with the given name, or domain.ErrNotFound.
func (s *MemoryUserStore) FindByName(_ context.Context, name string) (*app.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("memory user store: find by name: %w", domain.ErrNotFound)
	}
	record := s.byID[userID]
	return &record, nil
}

// Insert creates a new user under the store lock, so the uniqueness check
// and the write are one atomic step. Returns domain.ErrAlreadyExists when
// the name is taken.
func (s *MemoryUserStore) Insert(_ context.Context, record app.NewUserRecord) (*app.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[record.Name]; taken {
		return nil, fmt.Errorf("memory user store: insert: %w", domain.ErrAlreadyExists)
	}

	s.nextID++
	created := app.UserRecord{
		UserID:       s.nextID,
		Name:         record.Name,
		PasswordHash: record.PasswordHash,
		CreatedAt:    s.clock.Now().UTC().Format(time.RFC3339),
	}
	s.byID[created.UserID] = created
	s.byName[created.Name] = created.UserID

	return &created, nil
}
