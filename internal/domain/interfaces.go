package domain

import (
	"context"
	"time"

	"slotbook/internal/models"
)

// Repository is the persistence surface used by the services.
type Repository interface {
	GetAllMembers(ctx context.Context) ([]*models.Member, error)
	SyncMembers(ctx context.Context, members []models.Member) error

	CreateBookingWithLock(ctx context.Context, booking *models.Booking, deviceInfo string) error
	CancelBooking(ctx context.Context, memberID int64, day models.Date, deviceInfo string) (*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end models.Date) ([]*models.Booking, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByDate(ctx context.Context, day models.Date) ([]*models.Comment, error)

	ListActivity(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityEntry, error)
	GetMemberBookingCounts(ctx context.Context, start, end models.Date) ([]models.MemberBookingCount, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RateLimiter decides whether the client identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time
