package models

import "time"

type Booking struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	Date       Date      `json:"booking_date"`
	SlotNumber int       `json:"slot_number"`
	Status     string    `json:"status"` // active, cancelled
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
