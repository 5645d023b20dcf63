package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/accord/internal/repository"
)

// APIKeyRepository stores hashed API keys and resolves them to users
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a key hash for userID
func (r *APIKeyRepository) Create(ctx context.Context, keyHash, userID, description string) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO api_keys (key_hash, user_id, description, created_at)
		VALUES (?, ?, ?, ?)
	`, keyHash, userID, description, millis(time.Now()))
	if err != nil {
		if r.db.dialect.IsUniqueViolation(err) {
			return repository.ErrConflict
		}
		if r.db.dialect.IsForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// ResolveUser returns the user owning keyHash and records its use
func (r *APIKeyRepository) ResolveUser(ctx context.Context, keyHash string) (string, error) {
	var userID string
	err := r.db.queryRow(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.exec(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, millis(time.Now()), keyHash); err != nil {
		return "", fmt.Errorf("failed to record api key use: %w", err)
	}
	return userID, nil
}
