package contract

import (
	"context"
	"time"

	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/obligation"
)

// Repository provides persistence for contracts and their participants.
type Repository interface {
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, id string) (*Contract, error)
	ListForUser(ctx context.Context, userID string) ([]Contract, error)
	ListActive(ctx context.Context) ([]Contract, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	AddParticipant(ctx context.Context, id, userID string, at time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// TemplateReader resolves the templates a contract bundles.
type TemplateReader interface {
	GetMany(ctx context.Context, ids []string) ([]obligation.Template, error)
}

// ActivityRepository records contract lifecycle events.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Scheduler materializes and discards a contract's current-week obligations.
type Scheduler interface {
	GenerateCurrentWeek(ctx context.Context, contractID string) error
	DiscardFromCurrentWeek(ctx context.Context, contractID string) error
}
