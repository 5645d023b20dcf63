package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/repository"
)

// Service materializes weekly instances and maintains the completion ledger.
type Service struct {
	instances  Repository
	contracts  ContractReader
	templates  TemplateReader
	activities ActivityRepository
	metrics    Metrics
	clock      calendar.Clock
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records generation and completion counters.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the wall clock used to find the current week.
func WithClock(c calendar.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// NewService creates a new instance service.
func NewService(
	instances Repository,
	contracts ContractReader,
	templates TemplateReader,
	activities ActivityRepository,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		instances:  instances,
		contracts:  contracts,
		templates:  templates,
		activities: activities,
		clock:      calendar.SystemClock{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentWeek returns the start of the week containing the service clock's now.
func (s *Service) CurrentWeek() time.Time {
	return calendar.StartOfWeek(s.clock.Now())
}

// weekOf returns the start of the week containing t in the clock's location.
func (s *Service) weekOf(t time.Time) time.Time {
	return calendar.StartOfWeek(t.In(s.clock.Now().Location()))
}

// GenerateWeek materializes the week starting at weekStart for a contract.
// Only (template, participant) pairs with no instances in that week are
// generated, so existing sets keep the recurrence they were created with. Templates that fail to expand
// are listed in the result rather than failing the call.
func (s *Service) GenerateWeek(ctx context.Context, contractID string, weekStart time.Time) (*GenerateResult, error) {
	c, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, c, s.weekOf(weekStart))
}

// GenerateCurrentWeek materializes the current week for a contract.
func (s *Service) GenerateCurrentWeek(ctx context.Context, contractID string) error {
	_, err := s.GenerateWeek(ctx, contractID, s.CurrentWeek())
	return err
}

// GenerateActiveContracts materializes the week starting at weekStart for
// every active contract. It keeps going past individual failures and
// returns them joined.
func (s *Service) GenerateActiveContracts(ctx context.Context, weekStart time.Time) ([]GenerateResult, error) {
	contracts, err := s.contracts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active contracts: %w", err)
	}

	weekStart = s.weekOf(weekStart)
	var (
		results []GenerateResult
		errs    []error
	)
	for i := range contracts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.generate(ctx, &contracts[i], weekStart)
		if err != nil {
			errs = append(errs, fmt.Errorf("contract %s: %w", contracts[i].ID, err))
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// DiscardFromCurrentWeek deletes a contract's instances from the current
// week onwards. Earlier weeks are kept for reporting.
func (s *Service) DiscardFromCurrentWeek(ctx context.Context, contractID string) error {
	n, err := s.instances.DeleteFromWeek(ctx, contractID, s.CurrentWeek())
	if err != nil {
		return fmt.Errorf("deleting instances: %w", err)
	}
	s.logger.Debug("discarded instances", "contract_id", contractID, "count", n)
	return nil
}

func (s *Service) generate(ctx context.Context, c *contract.Contract, weekStart time.Time) (*GenerateResult, error) {
	result := &GenerateResult{ContractID: c.ID, WeekStart: weekStart}
	if !c.Schedules(weekStart) {
		return result, nil
	}

	templates, err := s.templates.GetMany(ctx, c.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("getting templates: %w", err)
	}

	instances, genErr := GenerateWeekInstances(*c, templates, weekStart)
	if genErr != nil {
		result.Failures = templateFailures(genErr)
		s.logger.Warn("skipping invalid templates", "contract_id", c.ID, "week_start", weekStart, "error", genErr)
		if s.metrics != nil {
			s.metrics.GenerationFailed(ctx, c.ID, len(result.Failures))
		}
	}
	if len(instances) == 0 {
		return result, nil
	}

	existing, err := s.instances.ListWeek(ctx, c.ID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	pending := WithoutMaterialized(instances, existing)
	result.Existing = len(instances) - len(pending)
	if len(pending) == 0 {
		return result, nil
	}

	now := s.clock.Now()
	for i := range pending {
		pending[i].CreatedAt = now
	}
	// A concurrent generator may insert the same keys first; those inserts
	// are no-ops.
	created, err := s.instances.CreateIfAbsent(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("storing instances: %w", err)
	}
	result.Created = created
	result.Existing += len(pending) - created

	if created > 0 {
		s.logger.Info("generated instances", "contract_id", c.ID, "week_start", weekStart, "created", created)
		if s.metrics != nil {
			s.metrics.InstancesGenerated(ctx, c.ID, created)
		}
		s.logActivity(ctx, &activity.ActivityEntry{
			ContractID:   c.ID,
			ActivityType: activity.TypeInstancesGenerated,
			Summary:      fmt.Sprintf("generated %d obligations for week of %s", created, calendar.WeekKey(weekStart)),
		})
	}
	return result, nil
}

func templateFailures(err error) []TemplateFailure {
	var out []TemplateFailure
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []TemplateFailure{{Reason: err.Error()}}
	}
	for _, e := range joined.Unwrap() {
		var te *TemplateError
		if errors.As(e, &te) {
			out = append(out, TemplateFailure{TemplateID: te.TemplateID, Reason: te.Err.Error()})
			continue
		}
		out = append(out, TemplateFailure{Reason: e.Error()})
	}
	return out
}

// ListWeek returns every instance of a contract week, generating the current
// week on first access.
func (s *Service) ListWeek(ctx context.Context, userID, contractID string, weekStart time.Time) ([]Instance, error) {
	c, err := s.authorize(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}
	weekStart = s.weekOf(weekStart)
	if weekStart.Equal(s.CurrentWeek()) {
		if _, err := s.generate(ctx, c, weekStart); err != nil {
			return nil, err
		}
	}
	instances, err := s.instances.ListWeek(ctx, contractID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	return instances, nil
}

// ObligationsToComplete returns the current week's outstanding instances of
// a contract, grouped by participant.
func (s *Service) ObligationsToComplete(ctx context.Context, userID, contractID string) (*DueSet, error) {
	c, err := s.authorize(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}
	weekStart := s.CurrentWeek()
	if _, err := s.generate(ctx, c, weekStart); err != nil {
		return nil, err
	}

	instances, err := s.instances.ListWeek(ctx, contractID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	templates, err := s.templates.GetMany(ctx, c.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("getting templates: %w", err)
	}

	return &DueSet{
		ContractID: contractID,
		WeekStart:  weekStart,
		WeekEnd:    calendar.EndOfWeek(weekStart),
		Users:      GroupByUser(*c, ObligationsToComplete(*c, templates, instances)),
	}, nil
}

func (s *Service) loadContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, contract.ErrContractNotFound
		}
		return nil, fmt.Errorf("getting contract: %w", err)
	}
	return c, nil
}

func (s *Service) authorize(ctx context.Context, userID, contractID string) (*contract.Contract, error) {
	c, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, contract.ErrContractNotFound
	}
	if err := contract.CheckAccess(c, userID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.logger.Warn("logging activity failed", "type", entry.ActivityType, "error", err)
	}
}
