package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/repository"
)

// ContractRepository implements contract.Repository
type ContractRepository struct {
	db *DB
}

// NewContractRepository creates a new ContractRepository
func NewContractRepository(db *DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	c.id, c.title, c.creator_id, c.due_date, c.is_active, c.created_at, c.activated_at, c.deleted_at
`

// Create inserts a contract with its participants and templates
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.db.rebind(`
			INSERT INTO contracts (id, title, creator_id, due_date, is_active, created_at, activated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`),
			c.ID,
			c.Title,
			c.CreatorID,
			nullMillis(c.DueDate),
			c.IsActive,
			millis(c.CreatedAt),
			nullMillis(c.ActivatedAt),
		)
		if err != nil {
			if r.db.dialect.IsUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to create contract: %w", err)
		}

		for i, userID := range c.ParticipantIDs {
			if _, err := tx.ExecContext(ctx, r.db.rebind(`
				INSERT INTO contract_participants (contract_id, user_id, position, joined_at)
				VALUES (?, ?, ?, ?)
			`), c.ID, userID, i, millis(c.CreatedAt)); err != nil {
				return fmt.Errorf("failed to add participant: %w", err)
			}
		}
		for i, templateID := range c.TemplateIDs {
			if _, err := tx.ExecContext(ctx, r.db.rebind(`
				INSERT INTO contract_templates (contract_id, template_id, position)
				VALUES (?, ?, ?)
			`), c.ID, templateID, i); err != nil {
				if r.db.dialect.IsForeignKeyViolation(err) {
					return repository.ErrForeignKeyViolation
				}
				return fmt.Errorf("failed to add template: %w", err)
			}
		}
		return nil
	})
}

// Get retrieves a contract by ID, including deleted ones
func (r *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	row := r.db.queryRow(ctx, `SELECT `+contractColumns+` FROM contracts c WHERE c.id = ?`, id)
	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	if err := r.loadMembers(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListForUser lists the live contracts userID participates in, newest first
func (r *ContractRepository) ListForUser(ctx context.Context, userID string) ([]contract.Contract, error) {
	return r.list(ctx, `
		SELECT `+contractColumns+`
		FROM contracts c
		JOIN contract_participants p ON p.contract_id = c.id
		WHERE p.user_id = ? AND c.deleted_at IS NULL
		ORDER BY c.created_at DESC, c.id ASC
	`, userID)
}

// ListActive lists every live, active contract
func (r *ContractRepository) ListActive(ctx context.Context) ([]contract.Contract, error) {
	return r.list(ctx, `
		SELECT `+contractColumns+`
		FROM contracts c
		WHERE c.is_active = ? AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC, c.id ASC
	`, true)
}

// SetActive flips the active flag of a live contract
func (r *ContractRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	var activatedAt sql.NullInt64
	if active {
		activatedAt = sql.NullInt64{Int64: millis(at), Valid: true}
	}
	result, err := r.db.exec(ctx, `
		UPDATE contracts SET is_active = ?, activated_at = COALESCE(?, activated_at)
		WHERE id = ? AND deleted_at IS NULL
	`, active, activatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return requireRows(result)
}

// AddParticipant appends userID to a contract's participants
func (r *ContractRepository) AddParticipant(ctx context.Context, id, userID string, at time.Time) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO contract_participants (contract_id, user_id, position, joined_at)
		SELECT CAST(? AS TEXT), CAST(? AS TEXT), COALESCE(MAX(position), -1) + 1, CAST(? AS BIGINT)
		FROM contract_participants WHERE contract_id = ?
	`, id, userID, millis(at), id)
	if err != nil {
		if r.db.dialect.IsUniqueViolation(err) {
			return repository.ErrConflict
		}
		if r.db.dialect.IsForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// SoftDelete marks a contract deleted and inactive
func (r *ContractRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.exec(ctx, `
		UPDATE contracts SET deleted_at = ?, is_active = ?
		WHERE id = ? AND deleted_at IS NULL
	`, millis(at), false, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return requireRows(result)
}

func (r *ContractRepository) list(ctx context.Context, query string, args ...any) ([]contract.Contract, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	var contracts []contract.Contract
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating contract rows: %w", err)
	}
	rows.Close()

	for i := range contracts {
		if err := r.loadMembers(ctx, &contracts[i]); err != nil {
			return nil, err
		}
	}
	return contracts, nil
}

func (r *ContractRepository) scan(s scanner) (*contract.Contract, error) {
	var (
		c                               contract.Contract
		dueDate, activatedAt, deletedAt sql.NullInt64
		createdAt                       int64
	)
	if err := s.Scan(
		&c.ID,
		&c.Title,
		&c.CreatorID,
		&dueDate,
		&c.IsActive,
		&createdAt,
		&activatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	c.DueDate = r.db.fromNullMillis(dueDate)
	c.CreatedAt = r.db.fromMillis(createdAt)
	c.ActivatedAt = r.db.fromNullMillis(activatedAt)
	c.DeletedAt = r.db.fromNullMillis(deletedAt)
	return &c, nil
}

func (r *ContractRepository) loadMembers(ctx context.Context, c *contract.Contract) error {
	participants, err := r.column(ctx, `
		SELECT user_id FROM contract_participants WHERE contract_id = ? ORDER BY position ASC
	`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	templates, err := r.column(ctx, `
		SELECT template_id FROM contract_templates WHERE contract_id = ? ORDER BY position ASC
	`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	c.ParticipantIDs = participants
	c.TemplateIDs = templates
	return nil
}

func (r *ContractRepository) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
