package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/accord/internal/repository"
)

// Service manages user records.
type Service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a user. An empty id gets a generated one.
func (s *Service) Create(ctx context.Context, id, displayName string) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	u := &User{ID: id, DisplayName: displayName, CreatedAt: time.Now()}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// DisplayNames maps user IDs to display names. Unknown users map to their ID.
func (s *Service) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	users, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("getting users: %w", err)
	}
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		names[id] = id
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}
