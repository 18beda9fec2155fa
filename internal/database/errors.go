package database

import "errors"

var (
	ErrCapacityExceeded = errors.New("all slots are booked for this date")
	ErrDuplicateBooking = errors.New("member already has a booking for this date")
	ErrBookingNotFound  = errors.New("no active booking found for this member and date")
	ErrMemberNotFound   = errors.New("member not found")
)
