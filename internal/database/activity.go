package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"slotbook/internal/models"
)

func (db *DB) insertActivity(ctx context.Context, tx *sql.Tx, entry *models.ActivityEntry) error {
	query := db.q(`INSERT INTO activity_log (member_id, action, booking_date, slot_number, device_info, created_at)
              VALUES (?, ?, ?, ?, ?, ?)
              RETURNING id`)
	err := tx.QueryRowContext(ctx, query,
		entry.MemberID,
		entry.Action,
		entry.BookingDate,
		entry.SlotNumber,
		entry.DeviceInfo,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity in tx: %w", err)
	}
	return nil
}

// ListActivity returns the newest activity entries first. filter.Limit must be positive.
func (db *DB) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityEntry, error) {
	var (
		conds []string
		args  []any
	)
	if !filter.Date.IsZero() {
		conds = append(conds, "a.booking_date = ?")
		args = append(args, filter.Date)
	}
	if filter.MemberID > 0 {
		conds = append(conds, "a.member_id = ?")
		args = append(args, filter.MemberID)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT a.id, a.member_id, m.name, a.action, a.booking_date, a.slot_number, a.device_info, a.created_at
              FROM activity_log a
              JOIN members m ON m.id = a.member_id`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY a.created_at DESC, a.id DESC LIMIT ?")
	args = append(args, filter.Limit)

	rows, err := db.QueryContext(ctx, db.q(sb.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var entries []*models.ActivityEntry
	for rows.Next() {
		e := &models.ActivityEntry{}
		if err := rows.Scan(&e.ID, &e.MemberID, &e.MemberName, &e.Action, &e.BookingDate, &e.SlotNumber, &e.DeviceInfo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
