package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/schedule"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	cfg      config.BookingConfig
	loc      *time.Location
	now      domain.Clock
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, cfg config.BookingConfig, loc *time.Location, logger *zerolog.Logger) *BookingService {
	if cfg.DailyCapacity <= 0 {
		cfg.DailyCapacity = models.DefaultDailyCapacity
	}
	if cfg.WindowWeeks <= 0 {
		cfg.WindowWeeks = models.DefaultWindowWeeks
	}
	if cfg.DeviceInfoMaxLen <= 0 {
		cfg.DeviceInfoMaxLen = models.DeviceInfoMaxLen
	}
	if cfg.DefaultDeviceInfo == "" {
		cfg.DefaultDeviceInfo = models.DefaultDeviceInfo
	}
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *BookingService) today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// ValidateBookingDate checks the rolling window when enforcement is on.
func (s *BookingService) ValidateBookingDate(day models.Date) error {
	if !s.cfg.EnforceWindow {
		return nil
	}
	if !schedule.InWindow(day, s.today(), s.cfg.WindowWeeks) {
		return ErrOutsideWindow
	}
	return nil
}

// DeviceInfo normalizes the client-supplied device description for the activity log.
func (s *BookingService) DeviceInfo(raw string) string {
	info := strings.TrimSpace(raw)
	if info == "" {
		return s.cfg.DefaultDeviceInfo
	}
	if utf8.RuneCountInString(info) > s.cfg.DeviceInfoMaxLen {
		info = string([]rune(info)[:s.cfg.DeviceInfoMaxLen])
	}
	return info
}

func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := invalid(req.Validate()); err != nil {
		metrics.IncBooking(metrics.OutcomeInvalid)
		return nil, err
	}
	day, err := models.ParseDate(req.BookingDate)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	// Проверка окна бронирования
	if err := s.ValidateBookingDate(day); err != nil {
		metrics.IncBooking(metrics.OutcomeInvalid)
		return nil, err
	}

	booking := &models.Booking{MemberID: req.MemberID, Date: day}
	deviceInfo := s.DeviceInfo(req.DeviceInfo)

	if err := s.repo.CreateBookingWithLock(ctx, booking, deviceInfo); err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("member_id", booking.MemberID).
		Str("date", day.String()).
		Int("slot", booking.SlotNumber).
		Msg("Booking created")

	s.publishEvent(events.EventBookingCreated, booking, deviceInfo)
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, req CancelBookingRequest) (*models.Booking, error) {
	if err := invalid(req.Validate()); err != nil {
		metrics.IncBooking(metrics.OutcomeInvalid)
		return nil, err
	}
	day, err := models.ParseDate(req.BookingDate)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	if err := s.ValidateBookingDate(day); err != nil {
		metrics.IncBooking(metrics.OutcomeInvalid)
		return nil, err
	}

	deviceInfo := s.DeviceInfo(req.DeviceInfo)
	booking, err := s.repo.CancelBooking(ctx, req.MemberID, day, deviceInfo)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("member_id", booking.MemberID).
		Str("date", day.String()).
		Int("slot", booking.SlotNumber).
		Msg("Booking cancelled")

	s.publishEvent(events.EventBookingCancelled, booking, deviceInfo)
	return booking, nil
}

// ListBookings returns the active bookings between startDate and endDate inclusive.
func (s *BookingService) ListBookings(ctx context.Context, req ListBookingsRequest) ([]*models.Booking, error) {
	if strings.TrimSpace(req.StartDate) == "" || strings.TrimSpace(req.EndDate) == "" {
		return nil, newValidationError("start date and end date are required")
	}
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return nil, newValidationError(err.Error())
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

// Calendar builds the window of weekdays around date (today when empty) with
// per-day occupancy.
func (s *BookingService) Calendar(ctx context.Context, date string) ([]models.CalendarDay, error) {
	today := s.today()
	from := today
	if strings.TrimSpace(date) != "" {
		parsed, err := models.ParseDate(date)
		if err != nil {
			return nil, newValidationError(err.Error())
		}
		from = parsed
	}

	days := schedule.Window(from, s.cfg.WindowWeeks)
	if len(days) == 0 {
		return []models.CalendarDay{}, nil
	}

	bookings, err := s.repo.GetBookingsByDateRange(ctx, days[0], days[len(days)-1])
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]string, len(days))
	for _, b := range bookings {
		key := b.Date.String()
		byDay[key] = append(byDay[key], b.MemberName)
	}

	calendar := make([]models.CalendarDay, 0, len(days))
	for _, day := range days {
		names := byDay[day.String()]
		if names == nil {
			names = []string{}
		}
		available := s.cfg.DailyCapacity - len(names)
		if available < 0 {
			available = 0
		}
		calendar = append(calendar, models.CalendarDay{
			Date:           day,
			DayName:        day.Format(models.DayNameLayout),
			IsPast:         day.Before(today),
			BookedCount:    len(names),
			MaxSlots:       s.cfg.DailyCapacity,
			AvailableSlots: available,
			BookedMembers:  names,
		})
	}
	return calendar, nil
}

func (s *BookingService) countRejection(err error) {
	switch {
	case errors.Is(err, database.ErrCapacityExceeded):
		metrics.IncBooking(metrics.OutcomeFull)
	case errors.Is(err, database.ErrDuplicateBooking):
		metrics.IncBooking(metrics.OutcomeDuplicate)
	case errors.Is(err, database.ErrBookingNotFound), errors.Is(err, database.ErrMemberNotFound):
		metrics.IncBooking(metrics.OutcomeNotFound)
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, deviceInfo string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		MemberID:   booking.MemberID,
		MemberName: booking.MemberName,
		Date:       booking.Date.String(),
		SlotNumber: booking.SlotNumber,
		DeviceInfo: deviceInfo,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish booking event")
	}
}
