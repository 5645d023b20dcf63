package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/repository"
)

// Service handles the contract lifecycle.
type Service struct {
	contracts  Repository
	templates  TemplateReader
	activities ActivityRepository
	scheduler  Scheduler
	allowSolo  bool
	logger     *slog.Logger
}

// NewService creates a new contract service.
func NewService(
	contracts Repository,
	templates TemplateReader,
	activities ActivityRepository,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		contracts:  contracts,
		templates:  templates,
		activities: activities,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest describes a contract creation request.
type CreateRequest struct {
	Title          string
	DueDate        *time.Time
	ParticipantIDs []string
	TemplateIDs    []string
	// Activate starts the contract immediately. Multi-participant contracts
	// normally wait for the signature workflow instead.
	Activate bool
}

// Create stores a new contract with the caller as its first participant.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Contract, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(req.Title) == "" || len(req.TemplateIDs) == 0 {
		return nil, ErrInvalidInput
	}

	participants := dedupe(append([]string{userID}, req.ParticipantIDs...))
	templateIDs := dedupe(req.TemplateIDs)
	if len(templateIDs) == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.checkTemplates(ctx, participants, templateIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &Contract{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		CreatorID:      userID,
		DueDate:        req.DueDate,
		ParticipantIDs: participants,
		TemplateIDs:    templateIDs,
		CreatedAt:      now,
	}
	if req.Activate {
		if c.IsSolo() && !s.allowSolo {
			return nil, ErrSoloNotAllowed
		}
		c.IsActive = true
		c.ActivatedAt = &now
	}

	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating contract: %w", err)
	}

	s.logActivity(ctx, c.ID, userID, activity.TypeContractCreated, fmt.Sprintf("created contract %q", c.Title))
	if c.IsActive {
		s.generate(ctx, c.ID)
	}
	return c, nil
}

// Get returns a live contract the caller participates in.
func (s *Service) Get(ctx context.Context, userID, id string) (*Contract, error) {
	c, err := s.GetIncludingDeleted(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, ErrContractNotFound
	}
	return c, nil
}

// GetIncludingDeleted returns a contract the caller participates in even
// after deletion, for historical reporting.
func (s *Service) GetIncludingDeleted(ctx context.Context, userID, id string) (*Contract, error) {
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("getting contract: %w", err)
	}
	if err := CheckAccess(c, userID); err != nil {
		return nil, err
	}
	return c, nil
}

// ListForUser lists the live contracts the caller participates in.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Contract, error) {
	contracts, err := s.contracts.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	return contracts, nil
}

// SetActive records the outcome of the signature workflow. Activation
// generates the current week for every participant.
func (s *Service) SetActive(ctx context.Context, userID, id string, active bool) (*Contract, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.IsActive == active {
		return c, nil
	}
	if active && c.IsSolo() && !s.allowSolo {
		return nil, ErrSoloNotAllowed
	}

	now := time.Now()
	if err := s.contracts.SetActive(ctx, id, active, now); err != nil {
		return nil, fmt.Errorf("updating contract state: %w", err)
	}
	c.IsActive = active
	if active {
		c.ActivatedAt = &now
		s.logActivity(ctx, id, userID, activity.TypeContractActivated, "contract activated")
		s.generate(ctx, id)
	} else {
		s.logActivity(ctx, id, userID, activity.TypeContractDeactivated, "contract deactivated")
	}
	return c, nil
}

// Join adds userID to a contract and backfills the current week. Earlier
// weeks are left untouched.
func (s *Service) Join(ctx context.Context, userID, id string) (*Contract, error) {
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("getting contract: %w", err)
	}
	if c.IsDeleted() {
		return nil, ErrContractNotFound
	}
	if c.HasParticipant(userID) {
		return c, nil
	}

	if err := s.contracts.AddParticipant(ctx, id, userID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return s.Get(ctx, userID, id)
		}
		return nil, fmt.Errorf("adding participant: %w", err)
	}
	c.ParticipantIDs = append(c.ParticipantIDs, userID)

	s.logActivity(ctx, id, userID, activity.TypeParticipantJoined, fmt.Sprintf("%s joined", userID))
	if c.IsActive {
		s.generate(ctx, id)
	}
	return c, nil
}

// Delete removes a contract for every participant. Obligations from the
// current week onwards are discarded; earlier weeks remain reportable.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.contracts.SoftDelete(ctx, id, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContractNotFound
		}
		return fmt.Errorf("deleting contract: %w", err)
	}
	if s.scheduler != nil {
		if err := s.scheduler.DiscardFromCurrentWeek(ctx, id); err != nil {
			return fmt.Errorf("discarding current obligations: %w", err)
		}
	}
	s.logActivity(ctx, id, userID, activity.TypeContractDeleted, "contract deleted")
	return nil
}

func (s *Service) checkTemplates(ctx context.Context, participants, ids []string) error {
	templates, err := s.templates.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("getting templates: %w", err)
	}
	byID := obligation.Index(templates)
	for _, id := range ids {
		tmpl, ok := byID[id]
		if !ok || tmpl.IsDeleted() {
			return fmt.Errorf("%w: %s", obligation.ErrTemplateNotFound, id)
		}
		if !slices.Contains(participants, tmpl.OwnerID) {
			return fmt.Errorf("%w: %s", obligation.ErrNotOwner, id)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) generate(ctx context.Context, id string) {
	if s.scheduler == nil {
		return
	}
	// Generation is also triggered lazily on the next read, so a failure
	// here only delays materialization.
	if err := s.scheduler.GenerateCurrentWeek(ctx, id); err != nil {
		s.logger.Warn("generating current week failed", "contract_id", id, "error", err)
	}
}

func (s *Service) logActivity(ctx context.Context, contractID, userID string, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, &activity.ActivityEntry{
		ContractID:   contractID,
		UserID:       userID,
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    time.Now(),
	}); err != nil {
		s.logger.Warn("logging activity failed", "type", typ, "contract_id", contractID, "error", err)
	}
}
