package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"slotbook/internal/config"
	"slotbook/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/mattn/go-sqlite3"
)

// dialect hides the differences between SQLite and PostgreSQL. Queries are
// written with ? placeholders and rebound per dialect.
type dialect interface {
	driverName() string
	schema() []string
	rebind(query string) string
	// lockDay serializes booking writers for one day inside tx.
	lockDay(ctx context.Context, tx *sql.Tx, day models.Date) error
	// constraintError maps a constraint violation to a sentinel error, nil otherwise.
	constraintError(err error) error
}

const (
	violationUnique = iota + 1
	violationForeignKey
)

// mapViolation turns a violation kind plus the constraint detail (index name
// or column list) into a sentinel error.
func mapViolation(kind int, detail string) error {
	switch kind {
	case violationUnique:
		if strings.Contains(detail, "slot_number") {
			return ErrCapacityExceeded
		}
		if strings.Contains(detail, "member_id") || strings.Contains(detail, "member_day") {
			return ErrDuplicateBooking
		}
	case violationForeignKey:
		return ErrMemberNotFound
	}
	return nil
}

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return config.DriverSQLite }

func (sqliteDialect) rebind(query string) string { return query }

// SQLite transactions are opened with BEGIN IMMEDIATE, so the day is already locked.
func (sqliteDialect) lockDay(context.Context, *sql.Tx, models.Date) error { return nil }

func (sqliteDialect) constraintError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.Code != sqlite3.ErrConstraint {
		return nil
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return mapViolation(violationUnique, se.Error())
	case sqlite3.ErrConstraintForeignKey:
		return mapViolation(violationForeignKey, se.Error())
	}
	return nil
}

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE,
            email TEXT,
            avatar_color TEXT,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(id),
            booking_date DATE NOT NULL,
            slot_number INTEGER NOT NULL CHECK (slot_number >= 1),
            status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'cancelled')),
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS activity_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(id),
            action TEXT NOT NULL CHECK (action IN ('booked', 'cancelled')),
            booking_date DATE NOT NULL,
            slot_number INTEGER,
            device_info TEXT,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS comments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(id),
            comment_date DATE NOT NULL,
            comment_text TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_member_day ON bookings(member_id, booking_date) WHERE status = 'active'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_slot_number ON bookings(booking_date, slot_number) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_booking_date ON activity_log(booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_date ON comments(comment_date)`,
	}
}

type postgresDialect struct{}

func (postgresDialect) driverName() string { return config.DriverPostgres }

// rebind rewrites ? placeholders to $1, $2, ...
func (postgresDialect) rebind(query string) string {
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

func (postgresDialect) lockDay(ctx context.Context, tx *sql.Tx, day models.Date) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "bookings:"+day.String())
	return err
}

func (postgresDialect) constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return mapViolation(violationUnique, pgErr.ConstraintName)
	case "23503": // foreign_key_violation
		return mapViolation(violationForeignKey, pgErr.ConstraintName)
	}
	return nil
}

func (postgresDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS members (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            email TEXT,
            avatar_color TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id BIGSERIAL PRIMARY KEY,
            member_id BIGINT NOT NULL REFERENCES members(id),
            booking_date DATE NOT NULL,
            slot_number INTEGER NOT NULL CHECK (slot_number >= 1),
            status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'cancelled')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS activity_log (
            id BIGSERIAL PRIMARY KEY,
            member_id BIGINT NOT NULL REFERENCES members(id),
            action TEXT NOT NULL CHECK (action IN ('booked', 'cancelled')),
            booking_date DATE NOT NULL,
            slot_number INTEGER,
            device_info TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS comments (
            id BIGSERIAL PRIMARY KEY,
            member_id BIGINT NOT NULL REFERENCES members(id),
            comment_date DATE NOT NULL,
            comment_text TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_member_day ON bookings(member_id, booking_date) WHERE status = 'active'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_slot_number ON bookings(booking_date, slot_number) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_booking_date ON activity_log(booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_date ON comments(comment_date)`,
	}
}
