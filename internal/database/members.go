package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"slotbook/internal/models"
)

const memberColumns = `id, name, email, avatar_color, created_at`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	m := &models.Member{}
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.AvatarColor, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// GetAllMembers returns every member ordered by name.
func (db *DB) GetAllMembers(ctx context.Context) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY name ASC, id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (db *DB) GetMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	query := db.q(`SELECT ` + memberColumns + ` FROM members WHERE id = ?`)
	m, err := scanMember(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", id, err)
	}
	return m, nil
}

func (db *DB) GetMemberByName(ctx context.Context, name string) (*models.Member, error) {
	query := db.q(`SELECT ` + memberColumns + ` FROM members WHERE name = ?`)
	m, err := scanMember(db.QueryRowContext(ctx, query, strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %q: %w", name, err)
	}
	return m, nil
}

// UpsertMember inserts the member or refreshes email and avatar color of the
// member with the same name. member.ID is set on return.
func (db *DB) UpsertMember(ctx context.Context, member *models.Member) error {
	return upsertMember(ctx, db.DB, db.q, member)
}

// SyncMembers upserts the given members by name in one transaction. Members
// missing from the list are left untouched since bookings reference them.
func (db *DB) SyncMembers(ctx context.Context, members []models.Member) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := range members {
		if err := upsertMember(ctx, tx, db.q, &members[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertMember(ctx context.Context, conn queryRower, rebind func(string) string, member *models.Member) error {
	query := rebind(`INSERT INTO members (name, email, avatar_color, created_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT (name) DO UPDATE SET email = excluded.email, avatar_color = excluded.avatar_color
              RETURNING id`)

	member.Name = strings.TrimSpace(member.Name)
	now := time.Now().UTC()
	if err := conn.QueryRowContext(ctx, query, member.Name, member.Email, member.AvatarColor, now).Scan(&member.ID); err != nil {
		return fmt.Errorf("failed to upsert member %q: %w", member.Name, err)
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	return nil
}
