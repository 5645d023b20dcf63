package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Dialect isolates the differences between the supported databases.
type Dialect interface {
	Name() string
	DriverName() string
	// DataSource adjusts a configured DSN before it is opened.
	DataSource(dsn string) string
	// Init prepares a freshly opened connection.
	Init(db *sql.DB) error
	// Rebind rewrites "?" placeholders into the driver's syntax.
	Rebind(query string) string
	IsUniqueViolation(err error) bool
	IsForeignKeyViolation(err error) bool
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", DialectSQLite, "sqlite3":
		return sqliteDialect{}, nil
	case DialectPostgres, "postgresql", "pg":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return DialectSQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

// DataSource adds per-connection pragmas, since PRAGMA statements only
// affect the pooled connection they run on.
func (sqliteDialect) DataSource(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (sqliteDialect) Init(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return nil
}

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}

func (sqliteDialect) IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return DialectPostgres }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DataSource(dsn string) string { return dsn }

func (postgresDialect) Init(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return nil
}

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (postgresDialect) IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
