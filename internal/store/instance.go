package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/repository"
)

// InstanceRepository implements instance.Repository
type InstanceRepository struct {
	db *DB
}

// NewInstanceRepository creates a new InstanceRepository
func NewInstanceRepository(db *DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

const instanceColumns = `
	id, contract_id, template_id, user_id, week_start, occurrence,
	due_at, completed_at, viewed_at, created_at
`

// CreateIfAbsent inserts the instances whose key is not stored yet. A
// concurrent generator inserting the same key makes the second insert a
// no-op rather than an error.
func (r *InstanceRepository) CreateIfAbsent(ctx context.Context, instances []instance.Instance) (int, error) {
	if len(instances) == 0 {
		return 0, nil
	}

	created := 0
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, r.db.rebind(`
			INSERT INTO obligation_instances (`+instanceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare instance insert: %w", err)
		}
		defer stmt.Close()

		for _, inst := range instances {
			result, err := stmt.ExecContext(ctx,
				inst.ID,
				inst.ContractID,
				inst.TemplateID,
				inst.UserID,
				millis(inst.WeekStart),
				inst.Occurrence,
				millis(inst.DueAt),
				nullMillis(inst.CompletedAt),
				nullMillis(inst.ViewedAt),
				millis(inst.CreatedAt),
			)
			if err != nil {
				if r.db.dialect.IsForeignKeyViolation(err) {
					return repository.ErrForeignKeyViolation
				}
				return fmt.Errorf("failed to insert instance: %w", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// Get retrieves an instance by ID
func (r *InstanceRepository) Get(ctx context.Context, id string) (*instance.Instance, error) {
	row := r.db.queryRow(ctx, `SELECT `+instanceColumns+` FROM obligation_instances WHERE id = ?`, id)
	inst, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

// GetMany retrieves instances by ID; unknown IDs are skipped
func (r *InstanceRepository) GetMany(ctx context.Context, ids []string) ([]instance.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+instanceColumns+` FROM obligation_instances
		WHERE id IN (`+placeholders(len(ids))+`)
		ORDER BY id ASC
	`, stringArgs(ids)...)
}

// ListWeek lists a contract's instances for the week starting at weekStart
func (r *InstanceRepository) ListWeek(ctx context.Context, contractID string, weekStart time.Time) ([]instance.Instance, error) {
	return r.list(ctx, `
		SELECT `+instanceColumns+` FROM obligation_instances
		WHERE contract_id = ? AND week_start = ?
		ORDER BY user_id ASC, due_at ASC, template_id ASC, occurrence ASC
	`, contractID, millis(weekStart))
}

// SetCompleted stamps completed_at while it is still null
func (r *InstanceRepository) SetCompleted(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	result, err := r.db.exec(ctx, `
		UPDATE obligation_instances SET completed_at = ?
		WHERE id = ? AND user_id = ? AND completed_at IS NULL
	`, millis(at), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to complete instance: %w", err)
	}
	return changed(result)
}

// ClearCompleted resets completed_at
func (r *InstanceRepository) ClearCompleted(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.exec(ctx, `
		UPDATE obligation_instances SET completed_at = NULL
		WHERE id = ? AND user_id = ? AND completed_at IS NOT NULL
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to uncomplete instance: %w", err)
	}
	return changed(result)
}

// MarkViewed stamps viewed_at on instances not viewed yet
func (r *InstanceRepository) MarkViewed(ctx context.Context, ids []string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{millis(at)}, stringArgs(ids)...)
	result, err := r.db.exec(ctx, `
		UPDATE obligation_instances SET viewed_at = ?
		WHERE viewed_at IS NULL AND id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark instances viewed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

// ListUnviewedCompleted lists completed, unviewed instances of other users
func (r *InstanceRepository) ListUnviewedCompleted(ctx context.Context, contractID, excludeUserID string) ([]instance.Instance, error) {
	return r.list(ctx, `
		SELECT `+instanceColumns+` FROM obligation_instances
		WHERE contract_id = ? AND user_id <> ?
		  AND completed_at IS NOT NULL AND viewed_at IS NULL
		ORDER BY completed_at ASC, id ASC
	`, contractID, excludeUserID)
}

// DeleteFromWeek removes a contract's instances from weekStart onwards
func (r *InstanceRepository) DeleteFromWeek(ctx context.Context, contractID string, weekStart time.Time) (int, error) {
	result, err := r.db.exec(ctx, `
		DELETE FROM obligation_instances WHERE contract_id = ? AND week_start >= ?
	`, contractID, millis(weekStart))
	if err != nil {
		return 0, fmt.Errorf("failed to delete instances: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func (r *InstanceRepository) list(ctx context.Context, query string, args ...any) ([]instance.Instance, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	instances := []instance.Instance{}
	for rows.Next() {
		inst, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instance rows: %w", err)
	}
	return instances, nil
}

func (r *InstanceRepository) scan(s scanner) (*instance.Instance, error) {
	var (
		inst                        instance.Instance
		weekStart, dueAt, createdAt int64
		completedAt, viewedAt       sql.NullInt64
	)
	if err := s.Scan(
		&inst.ID,
		&inst.ContractID,
		&inst.TemplateID,
		&inst.UserID,
		&weekStart,
		&inst.Occurrence,
		&dueAt,
		&completedAt,
		&viewedAt,
		&createdAt,
	); err != nil {
		return nil, err
	}
	inst.WeekStart = r.db.fromMillis(weekStart)
	inst.DueAt = r.db.fromMillis(dueAt)
	inst.CompletedAt = r.db.fromNullMillis(completedAt)
	inst.ViewedAt = r.db.fromNullMillis(viewedAt)
	inst.CreatedAt = r.db.fromMillis(createdAt)
	return &inst, nil
}

func changed(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
