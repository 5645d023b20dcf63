package instance

import (
	"context"
	"time"

	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/obligation"
)

// Repository provides persistence for obligation instances.
type Repository interface {
	// CreateIfAbsent inserts instances whose key is not yet stored and
	// returns how many were inserted.
	CreateIfAbsent(ctx context.Context, instances []Instance) (int, error)
	Get(ctx context.Context, id string) (*Instance, error)
	GetMany(ctx context.Context, ids []string) ([]Instance, error)
	ListWeek(ctx context.Context, contractID string, weekStart time.Time) ([]Instance, error)
	// SetCompleted stamps completedAt only while it is null and reports
	// whether a row changed.
	SetCompleted(ctx context.Context, id, userID string, at time.Time) (bool, error)
	ClearCompleted(ctx context.Context, id, userID string) (bool, error)
	MarkViewed(ctx context.Context, ids []string, at time.Time) (int, error)
	ListUnviewedCompleted(ctx context.Context, contractID, excludeUserID string) ([]Instance, error)
	DeleteFromWeek(ctx context.Context, contractID string, weekStart time.Time) (int, error)
}

// ContractReader loads contracts for generation and access checks.
type ContractReader interface {
	Get(ctx context.Context, id string) (*contract.Contract, error)
	ListActive(ctx context.Context) ([]contract.Contract, error)
}

// TemplateReader loads the templates a contract bundles.
type TemplateReader interface {
	GetMany(ctx context.Context, ids []string) ([]obligation.Template, error)
}

// ActivityRepository records ledger events.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Metrics records ledger counters.
type Metrics interface {
	InstancesGenerated(ctx context.Context, contractID string, n int)
	GenerationFailed(ctx context.Context, contractID string, n int)
	CompletionToggled(ctx context.Context, completed bool)
}
