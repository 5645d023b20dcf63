package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpggio/accord/internal/domain/instance"
)

// WeekGenerator materializes a week for every active contract.
type WeekGenerator interface {
	CurrentWeek() time.Time
	GenerateActiveContracts(ctx context.Context, weekStart time.Time) ([]instance.GenerateResult, error)
}

// Sweeper periodically materializes the current week of active contracts so
// obligations exist before anyone reads them.
type Sweeper struct {
	generator WeekGenerator
	interval  time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a sweeper running every interval.
func NewSweeper(generator WeekGenerator, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{generator: generator, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A non-positive interval disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep generates the current week once and returns the number of new
// instances.
func (s *Sweeper) Sweep(ctx context.Context) int {
	week := s.generator.CurrentWeek()
	results, err := s.generator.GenerateActiveContracts(ctx, week)
	if err != nil {
		s.logger.Warn("generation sweep incomplete", "week_start", week, "error", err)
	}
	created := 0
	for _, r := range results {
		created += r.Created
	}
	s.logger.Debug("generation sweep", "week_start", week, "contracts", len(results), "created", created)
	return created
}
