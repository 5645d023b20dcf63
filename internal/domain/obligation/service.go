package obligation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/accord/internal/repository"
)

// Service handles obligation template business logic.
type Service struct {
	templates Repository
	logger    *slog.Logger
}

// NewService creates a new template service.
func NewService(templates Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{templates: templates, logger: logger}
}

// CreateRequest describes a template creation request.
type CreateRequest struct {
	Title      string
	Icon       string
	Recurrence Recurrence
}

// UpdateRequest describes a template update. Nil fields are left unchanged.
type UpdateRequest struct {
	Title      *string
	Icon       *string
	Recurrence Recurrence
}

// Create stores a new template owned by userID.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Template, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	now := time.Now()
	tmpl := &Template{
		ID:         uuid.NewString(),
		OwnerID:    userID,
		Title:      strings.TrimSpace(req.Title),
		Icon:       req.Icon,
		Recurrence: req.Recurrence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}

	s.logger.Debug("template created", "template_id", tmpl.ID, "owner_id", userID, "kind", tmpl.Recurrence.Kind())
	return tmpl, nil
}

// Get returns a template by ID, including soft-deleted ones.
func (s *Service) Get(ctx context.Context, id string) (*Template, error) {
	tmpl, err := s.templates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("getting template: %w", err)
	}
	return tmpl, nil
}

// GetMany returns the templates with the given IDs. Missing IDs are skipped.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	templates, err := s.templates.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("getting templates: %w", err)
	}
	return templates, nil
}

// ListByOwner lists the live templates owned by userID.
func (s *Service) ListByOwner(ctx context.Context, userID string) ([]Template, error) {
	templates, err := s.templates.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return templates, nil
}

// Update edits a template. Changes only affect weeks generated afterwards.
func (s *Service) Update(ctx context.Context, userID, id string, req UpdateRequest) (*Template, error) {
	if err := ValidateUpdateInput(req); err != nil {
		return nil, err
	}

	tmpl, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		tmpl.Title = strings.TrimSpace(*req.Title)
	}
	if req.Icon != nil {
		tmpl.Icon = *req.Icon
	}
	if req.Recurrence != nil {
		tmpl.Recurrence = req.Recurrence
	}
	tmpl.UpdatedAt = time.Now()

	if err := s.templates.Update(ctx, tmpl); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("updating template: %w", err)
	}
	return tmpl, nil
}

// Delete soft deletes a template so historical reports can still name it.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.templates.SoftDelete(ctx, id, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("deleting template: %w", err)
	}
	s.logger.Debug("template deleted", "template_id", id, "owner_id", userID)
	return nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (*Template, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tmpl.IsDeleted() {
		return nil, ErrTemplateNotFound
	}
	if tmpl.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return tmpl, nil
}
