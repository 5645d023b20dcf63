package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/repository"
)

// ErrInvalidInput indicates an invalid report window.
var ErrInvalidInput = errors.New("invalid report input")

// ContractReader loads the contract being reported on.
type ContractReader interface {
	Get(ctx context.Context, id string) (*contract.Contract, error)
}

// TemplateReader loads templates, including soft-deleted ones.
type TemplateReader interface {
	GetMany(ctx context.Context, ids []string) ([]obligation.Template, error)
}

// InstanceReader loads the instances of one week.
type InstanceReader interface {
	ListWeek(ctx context.Context, contractID string, weekStart time.Time) ([]instance.Instance, error)
}

// DisplayNames resolves participant display names.
type DisplayNames interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Metrics records report counters.
type Metrics interface {
	ReportBuilt(ctx context.Context, weeksAgo int)
}

// Service builds status reports for contract participants.
type Service struct {
	contracts ContractReader
	templates TemplateReader
	instances InstanceReader
	users     DisplayNames
	metrics   Metrics
	clock     calendar.Clock
	logger    *slog.Logger
}

// NewService creates a new report service. users and metrics may be nil.
func NewService(
	contracts ContractReader,
	templates TemplateReader,
	instances InstanceReader,
	users DisplayNames,
	metrics Metrics,
	clock calendar.Clock,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		contracts: contracts,
		templates: templates,
		instances: instances,
		users:     users,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// BuildReport reports the week weeksAgo weeks before the current one
// (1 is the last closed week). The running week is rejected: its pending
// instances would count as missed. Deleted contracts remain reportable.
func (s *Service) BuildReport(ctx context.Context, userID, contractID string, weeksAgo int) (*StatusReport, error) {
	if weeksAgo < 1 {
		return nil, ErrInvalidInput
	}

	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, contract.ErrContractNotFound
		}
		return nil, fmt.Errorf("getting contract: %w", err)
	}
	if err := contract.CheckAccess(c, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	start := calendar.StartOfWeekNWeeksAgo(now, weeksAgo)
	instances, err := s.instances.ListWeek(ctx, contractID, start)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	templates, err := s.templates.GetMany(ctx, c.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("getting templates: %w", err)
	}

	r := BuildReport(*c, templates, instances)
	r.Window = Window{Start: start, End: calendar.EndOfWeekNWeeksAgo(now, weeksAgo)}

	if s.users != nil {
		names, err := s.users.DisplayNames(ctx, c.ParticipantIDs)
		if err != nil {
			return nil, fmt.Errorf("resolving display names: %w", err)
		}
		r.WithDisplayNames(names)
	}
	if s.metrics != nil {
		s.metrics.ReportBuilt(ctx, weeksAgo)
	}
	s.logger.Debug("built report", "contract_id", contractID, "weeks_ago", weeksAgo, "lines", len(r.Reports))
	return &r, nil
}
