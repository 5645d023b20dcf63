package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rpggio/accord/internal/domain/activity"
)

// ActivityRepository implements activity.Repository
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends an activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := r.db.queryRow(ctx, `
		INSERT INTO activity_log (
			contract_id, user_id, instance_id, activity_type, summary, details, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		entry.ContractID,
		entry.UserID,
		nullString(entry.InstanceID),
		entry.ActivityType,
		entry.Summary,
		entry.Details,
		millis(createdAt),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	entry.CreatedAt = createdAt
	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	conditions := []string{"contract_id = ?"}
	args := []any{opts.ContractID}

	if opts.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *opts.UserID)
	}
	if opts.InstanceID != nil {
		conditions = append(conditions, "instance_id = ?")
		args = append(args, *opts.InstanceID)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, string(*opts.ActivityType))
	}

	query := `
		SELECT id, contract_id, user_id, instance_id, activity_type, summary, details, created_at
		FROM activity_log
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY created_at DESC, id DESC`

	limit := opts.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var (
			entry      activity.ActivityEntry
			instanceID sql.NullString
			createdAt  int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.ContractID,
			&entry.UserID,
			&instanceID,
			&entry.ActivityType,
			&entry.Summary,
			&entry.Details,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if instanceID.Valid {
			entry.InstanceID = &instanceID.String
		}
		entry.CreatedAt = r.db.fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
