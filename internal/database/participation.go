package database

import (
	"context"
	"fmt"

	"slotbook/internal/models"
)

// GetMemberBookingCounts counts active bookings per member between start and
// end inclusive. Members without bookings are included with zero. Rows are
// ordered by bookings descending, then name.
func (db *DB) GetMemberBookingCounts(ctx context.Context, start, end models.Date) ([]models.MemberBookingCount, error) {
	query := db.q(`SELECT m.id, m.name, COUNT(b.id) AS booking_count
              FROM members m
              LEFT JOIN bookings b
                ON b.member_id = m.id
               AND b.status = ?
               AND b.booking_date >= ?
               AND b.booking_date <= ?
              GROUP BY m.id, m.name
              ORDER BY booking_count DESC, m.name ASC`)

	rows, err := db.QueryContext(ctx, query, models.StatusActive, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query participation: %w", err)
	}
	defer rows.Close()

	var counts []models.MemberBookingCount
	for rows.Next() {
		var c models.MemberBookingCount
		if err := rows.Scan(&c.MemberID, &c.Name, &c.Bookings); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
