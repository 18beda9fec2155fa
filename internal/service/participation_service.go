package service

import (
	"context"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ParticipationService struct {
	repo     domain.Repository
	capacity int
	loc      *time.Location
	now      domain.Clock
	logger   *zerolog.Logger
}

// ParticipationReport is the monthly participation table plus its denominator.
type ParticipationReport struct {
	Year       int
	Month      time.Month
	Weekdays   int
	TotalSlots int
	Rows       []*models.Participation
}

func NewParticipationService(repo domain.Repository, cfg config.BookingConfig, loc *time.Location, logger *zerolog.Logger) *ParticipationService {
	capacity := cfg.DailyCapacity
	if capacity <= 0 {
		capacity = models.DefaultDailyCapacity
	}
	if loc == nil {
		loc = time.Local
	}
	return &ParticipationService{
		repo:     repo,
		capacity: capacity,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Participation returns per-member booking counts and rates for one month.
func (s *ParticipationService) Participation(ctx context.Context, q ParticipationQuery) ([]*models.Participation, error) {
	report, err := s.Report(ctx, q)
	if err != nil {
		return nil, err
	}
	return report.Rows, nil
}

func (s *ParticipationService) Report(ctx context.Context, q ParticipationQuery) (*ParticipationReport, error) {
	if err := invalid(q.Validate()); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	year, month := q.Year, time.Month(q.Month)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}

	start, end := schedule.MonthBounds(year, month)
	counts, err := s.repo.GetMemberBookingCounts(ctx, start, end)
	if err != nil {
		return nil, err
	}

	weekdays := schedule.WeekdaysInMonth(year, month)
	total := weekdays * s.capacity

	rows := make([]*models.Participation, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, &models.Participation{
			ID:                c.MemberID,
			Name:              c.Name,
			Bookings:          c.Bookings,
			ParticipationRate: ParticipationRate(c.Bookings, total),
		})
	}

	return &ParticipationReport{
		Year:       year,
		Month:      month,
		Weekdays:   weekdays,
		TotalSlots: total,
		Rows:       rows,
	}, nil
}

// ParticipationRate is bookings/total as a whole percentage, rounded half
// away from zero. A zero total yields 0.
func ParticipationRate(bookings, total int) int {
	if total <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(bookings)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)
	return int(rate.IntPart())
}
