// Package store implements the domain repositories over database/sql for
// SQLite and PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/rpggio/accord/internal/migration"
	"github.com/rpggio/accord/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a database connection with its SQL dialect
type DB struct {
	*sql.DB
	dialect Dialect
	loc     *time.Location
	logger  *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLocation sets the location timestamps are returned in.
func WithLocation(loc *time.Location) Option {
	return func(db *DB) {
		if loc != nil {
			db.loc = loc
		}
	}
}

// WithLogger sets the logger used for migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Open connects to driver ("sqlite" or "postgres") at dataSourceName.
func Open(driver, dataSourceName string, opts ...Option) (*DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dialect.DataSource(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := Wrap(sqlDB, dialect, opts...)
	if err := dialect.Init(db.DB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// New opens a SQLite database.
func New(dataSourceName string, opts ...Option) (*DB, error) {
	return Open(DialectSQLite, dataSourceName, opts...)
}

// Wrap adopts an existing connection.
func Wrap(sqlDB *sql.DB, dialect Dialect, opts ...Option) *DB {
	db := &DB{DB: sqlDB, dialect: dialect, loc: time.UTC, logger: slog.Default()}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	files, err := migrations.For(db.dialect.Name())
	if err != nil {
		return 0, fmt.Errorf("loading migrations: %w", err)
	}
	runner := migration.NewRunner(db.DB, files, db.dialect.Rebind, db.logger)
	n, err := runner.Apply(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to run migrations: %w", err)
	}
	return n, nil
}

func (db *DB) rebind(query string) string {
	return db.dialect.Rebind(query)
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, db.rebind(query), args...)
}

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
