package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/repository"
)

// TemplateRepository implements obligation.Repository
type TemplateRepository struct {
	db *DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `
	id, owner_id, title, icon, recurrence_kind, weekdays, times_per_week,
	created_at, updated_at, deleted_at
`

type recurrenceColumns struct {
	kind         string
	weekdays     string
	timesPerWeek int
}

func encodeRecurrence(r obligation.Recurrence) recurrenceColumns {
	switch rec := r.(type) {
	case obligation.Daily:
		days := make([]int, 0, len(rec.Weekdays))
		for _, d := range rec.Sorted() {
			days = append(days, int(d))
		}
		return recurrenceColumns{kind: string(obligation.KindDaily), weekdays: joinInts(days)}
	case obligation.Weekly:
		return recurrenceColumns{kind: string(obligation.KindWeekly), timesPerWeek: rec.TimesPerWeek}
	default:
		return recurrenceColumns{}
	}
}

// Create inserts a template
func (r *TemplateRepository) Create(ctx context.Context, tmpl *obligation.Template) error {
	rec := encodeRecurrence(tmpl.Recurrence)
	_, err := r.db.exec(ctx, `
		INSERT INTO obligation_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tmpl.ID,
		tmpl.OwnerID,
		tmpl.Title,
		tmpl.Icon,
		rec.kind,
		rec.weekdays,
		rec.timesPerWeek,
		millis(tmpl.CreatedAt),
		millis(tmpl.UpdatedAt),
		nullMillis(tmpl.DeletedAt),
	)
	if err != nil {
		if r.db.dialect.IsUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// Get retrieves a template by ID, including soft-deleted ones
func (r *TemplateRepository) Get(ctx context.Context, id string) (*obligation.Template, error) {
	row := r.db.queryRow(ctx, `SELECT `+templateColumns+` FROM obligation_templates WHERE id = ?`, id)
	tmpl, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// GetMany retrieves templates by ID, including soft-deleted ones
func (r *TemplateRepository) GetMany(ctx context.Context, ids []string) ([]obligation.Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+templateColumns+` FROM obligation_templates
		WHERE id IN (`+placeholders(len(ids))+`)
	`, stringArgs(ids)...)
}

// ListByOwner lists an owner's live templates, oldest first
func (r *TemplateRepository) ListByOwner(ctx context.Context, ownerID string) ([]obligation.Template, error) {
	return r.list(ctx, `
		SELECT `+templateColumns+` FROM obligation_templates
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`, ownerID)
}

// Update replaces a live template's editable fields
func (r *TemplateRepository) Update(ctx context.Context, tmpl *obligation.Template) error {
	rec := encodeRecurrence(tmpl.Recurrence)
	result, err := r.db.exec(ctx, `
		UPDATE obligation_templates
		SET title = ?, icon = ?, recurrence_kind = ?, weekdays = ?, times_per_week = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, tmpl.Title, tmpl.Icon, rec.kind, rec.weekdays, rec.timesPerWeek, millis(tmpl.UpdatedAt), tmpl.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return requireRows(result)
}

// SoftDelete marks a template deleted
func (r *TemplateRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.exec(ctx, `
		UPDATE obligation_templates SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL
	`, millis(at), id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return requireRows(result)
}

func (r *TemplateRepository) list(ctx context.Context, query string, args ...any) ([]obligation.Template, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []obligation.Template
	for rows.Next() {
		tmpl, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}
	return templates, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *TemplateRepository) scan(s scanner) (*obligation.Template, error) {
	var (
		tmpl                 obligation.Template
		kind, weekdays       string
		timesPerWeek         int
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	if err := s.Scan(
		&tmpl.ID,
		&tmpl.OwnerID,
		&tmpl.Title,
		&tmpl.Icon,
		&kind,
		&weekdays,
		&timesPerWeek,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	tmpl.Recurrence = obligation.RestoreRecurrence(obligation.RecurrenceKind(kind), splitInts(weekdays), timesPerWeek)
	tmpl.CreatedAt = r.db.fromMillis(createdAt)
	tmpl.UpdatedAt = r.db.fromMillis(updatedAt)
	tmpl.DeletedAt = r.db.fromNullMillis(deletedAt)
	return &tmpl, nil
}

func requireRows(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
