package obligation

import (
	"context"
	"time"
)

// Repository provides persistence for obligation templates.
type Repository interface {
	Create(ctx context.Context, tmpl *Template) error
	Get(ctx context.Context, id string) (*Template, error)
	GetMany(ctx context.Context, ids []string) ([]Template, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Template, error)
	Update(ctx context.Context, tmpl *Template) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
