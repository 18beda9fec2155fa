package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
)

// CountActiveBookings returns the number of occupied slots on day.
func (db *DB) CountActiveBookings(ctx context.Context, day models.Date) (int, error) {
	query := db.q(`SELECT COUNT(*) FROM bookings WHERE booking_date = ? AND status = ?`)

	var count int
	if err := db.QueryRowContext(ctx, query, day, models.StatusActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// CreateBookingWithLock books the lowest free slot of booking.Date for
// booking.MemberID and appends the "booked" activity entry, all in one
// transaction. It fills ID, MemberName, SlotNumber, Status and timestamps.
//
// Errors: ErrMemberNotFound, ErrCapacityExceeded, ErrDuplicateBooking.
// The partial unique indexes back both booking checks, so concurrent writers
// cannot overbook even if the lock were skipped.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking, deviceInfo string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := db.dialect.lockDay(ctx, tx, booking.Date); err != nil {
		return fmt.Errorf("failed to lock booking day: %w", err)
	}

	// 1. Member must exist
	var memberName string
	err = tx.QueryRowContext(ctx, db.q(`SELECT name FROM members WHERE id = ?`), booking.MemberID).Scan(&memberName)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check member in tx: %w", err)
	}

	// 2. Capacity
	taken, err := db.activeSlots(ctx, tx, booking.Date)
	if err != nil {
		return err
	}
	if len(taken) >= db.capacity {
		return ErrCapacityExceeded
	}
	slot := lowestFreeSlot(taken, db.capacity)

	// 3. Insert; the member/day unique index reports duplicates
	now := time.Now().UTC()
	queryInsert := db.q(`INSERT INTO bookings (member_id, booking_date, slot_number, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)
              RETURNING id`)
	var id int64
	err = tx.QueryRowContext(ctx, queryInsert,
		booking.MemberID,
		booking.Date,
		slot,
		models.StatusActive,
		now,
		now,
	).Scan(&id)
	if err != nil {
		if mapped := db.dialect.constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	// 4. Activity
	entry := &models.ActivityEntry{
		MemberID:    booking.MemberID,
		Action:      models.ActionBooked,
		BookingDate: booking.Date,
		SlotNumber:  &slot,
		DeviceInfo:  &deviceInfo,
		CreatedAt:   now,
	}
	if err := db.insertActivity(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if mapped := db.dialect.constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.MemberName = memberName
	booking.SlotNumber = slot
	booking.Status = models.StatusActive
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) activeSlots(ctx context.Context, tx *sql.Tx, day models.Date) ([]int, error) {
	rows, err := tx.QueryContext(ctx, db.q(`SELECT slot_number FROM bookings WHERE booking_date = ? AND status = ?`), day, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability in tx: %w", err)
	}
	defer rows.Close()

	var slots []int
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// lowestFreeSlot returns the smallest slot in 1..capacity not in taken, 0 if none.
func lowestFreeSlot(taken []int, capacity int) int {
	used := make(map[int]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	for s := 1; s <= capacity; s++ {
		if !used[s] {
			return s
		}
	}
	return 0
}

// CancelBooking moves the member's active booking on day to cancelled and
// appends the "cancelled" activity entry carrying the freed slot number.
// Returns ErrBookingNotFound when there is nothing to cancel.
func (db *DB) CancelBooking(ctx context.Context, memberID int64, day models.Date, deviceInfo string) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking := &models.Booking{MemberID: memberID, Date: day}
	querySelect := db.q(`SELECT b.id, b.slot_number, b.created_at, m.name
              FROM bookings b
              JOIN members m ON m.id = b.member_id
              WHERE b.member_id = ? AND b.booking_date = ? AND b.status = ?`)
	err = tx.QueryRowContext(ctx, querySelect, memberID, day, models.StatusActive).
		Scan(&booking.ID, &booking.SlotNumber, &booking.CreatedAt, &booking.MemberName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, db.q(`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		models.StatusCancelled, now, booking.ID, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// cancelled by a concurrent request
		return nil, ErrBookingNotFound
	}

	slot := booking.SlotNumber
	entry := &models.ActivityEntry{
		MemberID:    memberID,
		Action:      models.ActionCancelled,
		BookingDate: day,
		SlotNumber:  &slot,
		DeviceInfo:  &deviceInfo,
		CreatedAt:   now,
	}
	if err := db.insertActivity(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	booking.Status = models.StatusCancelled
	booking.UpdatedAt = now
	return booking, nil
}

// GetBookingsByDateRange returns active bookings with start <= date <= end,
// ordered by date and slot.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end models.Date) ([]*models.Booking, error) {
	query := db.q(`SELECT b.id, b.member_id, m.name, b.booking_date, b.slot_number, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN members m ON m.id = b.member_id
              WHERE b.booking_date >= ? AND b.booking_date <= ? AND b.status = ?
              ORDER BY b.booking_date ASC, b.slot_number ASC`)

	rows, err := db.QueryContext(ctx, query, start, end, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		if err := rows.Scan(&b.ID, &b.MemberID, &b.MemberName, &b.Date, &b.SlotNumber, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBooking loads a booking of any status by id.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := db.q(`SELECT b.id, b.member_id, m.name, b.booking_date, b.slot_number, b.status, b.created_at, b.updated_at
              FROM bookings b
              JOIN members m ON m.id = b.member_id
              WHERE b.id = ?`)

	b := &models.Booking{}
	err := db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.MemberID, &b.MemberName, &b.Date, &b.SlotNumber, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	return b, nil
}
