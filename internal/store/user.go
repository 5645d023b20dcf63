package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/accord/internal/domain/user"
	"github.com/rpggio/accord/internal/repository"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO users (id, display_name, created_at)
		VALUES (?, ?, ?)
	`, u.ID, u.DisplayName, millis(u.CreatedAt))
	if err != nil {
		if r.db.dialect.IsUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	var createdAt int64
	err := r.db.queryRow(ctx, `
		SELECT id, display_name, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = r.db.fromMillis(createdAt)
	return &u, nil
}

// GetMany retrieves the users with the given IDs; unknown IDs are skipped
func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.query(ctx, `
		SELECT id, display_name, created_at FROM users
		WHERE id IN (`+placeholders(len(ids))+`)
	`, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.DisplayName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = r.db.fromMillis(createdAt)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
