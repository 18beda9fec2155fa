package service

import (
	"strings"

	"slotbook/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateBookingRequest struct {
	MemberID    int64  `json:"memberId"`
	BookingDate string `json:"bookingDate"`
	DeviceInfo  string `json:"deviceInfo"`
}

func (r CreateBookingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MemberID,
			validation.Required.Error("member ID is required"),
			validation.Min(int64(1)).Error("member ID must be positive"),
		),
		validation.Field(&r.BookingDate,
			validation.Required.Error("booking date is required"),
			validation.Date(models.DateLayout).Error("booking date must be YYYY-MM-DD"),
		),
	)
}

// CancelBookingRequest has the same shape as a booking request.
type CancelBookingRequest CreateBookingRequest

func (r CancelBookingRequest) Validate() error {
	return CreateBookingRequest(r).Validate()
}

type CreateCommentRequest struct {
	MemberID    int64  `json:"memberId"`
	CommentDate string `json:"commentDate"`
	CommentText string `json:"commentText"`
}

func (r CreateCommentRequest) Validate() error {
	text := strings.TrimSpace(r.CommentText)
	return validation.ValidateStruct(&r,
		validation.Field(&r.MemberID,
			validation.Required.Error("member ID is required"),
			validation.Min(int64(1)).Error("member ID must be positive"),
		),
		validation.Field(&r.CommentDate,
			validation.Required.Error("comment date is required"),
			validation.Date(models.DateLayout).Error("comment date must be YYYY-MM-DD"),
		),
		validation.Field(&r.CommentText,
			validation.By(func(any) error {
				if text == "" {
					return validation.NewError("validation_required", "comment text is required")
				}
				return nil
			}),
		),
	)
}

type ListBookingsRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (r ListBookingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StartDate,
			validation.Required.Error("start date is required"),
			validation.Date(models.DateLayout).Error("start date must be YYYY-MM-DD"),
		),
		validation.Field(&r.EndDate,
			validation.Required.Error("end date is required"),
			validation.Date(models.DateLayout).Error("end date must be YYYY-MM-DD"),
		),
	)
}

// ActivityQuery selects activity entries. Zero values mean "no filter" and
// the default limit.
type ActivityQuery struct {
	Limit    int
	Date     string
	MemberID int64
}

func (q ActivityQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Date, validation.Date(models.DateLayout).Error("date must be YYYY-MM-DD")),
		validation.Field(&q.MemberID, validation.Min(int64(0)).Error("member ID must be positive")),
	)
}

// ParticipationQuery selects a calendar month. Zero values mean the current month/year.
type ParticipationQuery struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (q ParticipationQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Month, validation.Min(0), validation.Max(12).Error("month must be between 1 and 12")),
		validation.Field(&q.Year, validation.Min(0), validation.Max(9999).Error("year must be between 1 and 9999")),
	)
}
