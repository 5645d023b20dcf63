package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/accord/internal/config"
	"github.com/rpggio/accord/internal/secrets"
	"github.com/rpggio/accord/internal/store"
)

// openDB connects to the configured database and applies pending migrations.
func openDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.DB, error) {
	dsn, err := dataSource(cfg.DB)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DB.Driver, dsn,
		store.WithLocation(cfg.Location()),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Driver == store.DialectSQLite && cfg.DB.Path == ":memory:" {
		// Each pooled connection would otherwise open its own empty database.
		db.SetMaxOpenConns(1)
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Debug("database ready", "driver", cfg.DB.Driver, "migrations_applied", applied)
	return db, nil
}

func dataSource(cfg config.DBConfig) (string, error) {
	if cfg.Driver == store.DialectPostgres {
		return keyringFor(cfg).ResolveDSN(cfg.DSN)
	}
	if err := ensureDBDir(cfg.Path); err != nil {
		return "", fmt.Errorf("failed to prepare database path: %w", err)
	}
	return cfg.Path, nil
}

func keyringFor(cfg config.DBConfig) secrets.Keyring {
	return secrets.Keyring{Service: cfg.KeyringService, User: cfg.KeyringUser}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
