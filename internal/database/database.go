package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"slotbook/internal/config"

	"github.com/rs/zerolog"
)

// DB is the relational store behind the booking service. It embeds *sql.DB so
// callers can ping or close it directly.
type DB struct {
	*sql.DB
	dialect  dialect
	capacity int
	path     string
	logger   *zerolog.Logger
}

// NewDB opens the configured database, applies the schema and returns the
// handle. capacity bounds slot numbers per day; it is enforced when booking,
// not by the schema, so it can change between runs.
func NewDB(cfg config.DatabaseConfig, capacity int, logger *zerolog.Logger) (*DB, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid daily capacity %d", capacity)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}

	var (
		d   dialect
		dsn string
	)
	switch driver {
	case config.DriverSQLite:
		d = sqliteDialect{}
		var err error
		if dsn, err = sqliteDSN(cfg); err != nil {
			return nil, err
		}
	case config.DriverPostgres:
		d = postgresDialect{}
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if driver == config.DriverSQLite && cfg.Path == ":memory:" {
		// every connection would get its own empty in-memory database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: d, capacity: capacity, path: cfg.Path, logger: logger}

	if err := db.createTables(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("driver", driver).Int("daily_capacity", capacity).Msg("Database initialized")
	}
	return db, nil
}

func sqliteDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.Path == "" {
		return "", fmt.Errorf("database path is required")
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5000
	}
	// _txlock=immediate makes every BeginTx take the write lock up front,
	// which serializes the capacity check with the insert.
	params := fmt.Sprintf("_txlock=immediate&_busy_timeout=%d&_foreign_keys=on", busy)

	if cfg.Path == ":memory:" {
		return "file::memory:?" + params, nil
	}

	// Создаем директорию для БД, если её нет
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return fmt.Sprintf("file:%s?%s&_journal_mode=WAL", cfg.Path, params), nil
}

func (db *DB) createTables(ctx context.Context) error {
	for _, query := range db.dialect.schema() {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", strings.TrimSpace(query), err)
		}
	}
	return nil
}

// Driver returns the database/sql driver name in use.
func (db *DB) Driver() string {
	return db.dialect.driverName()
}

// Path is the SQLite file path, empty for other drivers.
func (db *DB) Path() string {
	if db.dialect.driverName() != config.DriverSQLite {
		return ""
	}
	return db.path
}

func (db *DB) Capacity() int {
	return db.capacity
}

func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}
