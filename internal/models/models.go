package models

import "time"

type Member struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Email       *string   `json:"email" yaml:"email"`
	AvatarColor *string   `json:"avatar_color" yaml:"avatar_color"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

type Comment struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	Date       Date      `json:"comment_date"`
	Text       string    `json:"comment_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ActivityEntry struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	MemberName  string    `json:"member_name,omitempty"`
	Action      string    `json:"action"`
	BookingDate Date      `json:"booking_date"`
	SlotNumber  *int      `json:"slot_number"`
	DeviceInfo  *string   `json:"device_info"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityFilter narrows an activity listing. Zero fields are ignored.
type ActivityFilter struct {
	Limit    int
	Date     Date
	MemberID int64
}

// MemberBookingCount is the raw aggregation row behind participation stats.
type MemberBookingCount struct {
	MemberID int64
	Name     string
	Bookings int
}

type Participation struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Bookings          int    `json:"bookings"`
	ParticipationRate int    `json:"participation_rate"`
}

type CalendarDay struct {
	Date           Date     `json:"date"`
	DayName        string   `json:"day_name"`
	IsPast         bool     `json:"is_past"`
	BookedCount    int      `json:"booked_count"`
	MaxSlots       int      `json:"max_slots"`
	AvailableSlots int      `json:"available_slots"`
	BookedMembers  []string `json:"booked_members"`
}
