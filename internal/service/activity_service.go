package service

import (
	"context"

	"slotbook/internal/config"
	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
)

type ActivityService struct {
	repo         domain.Repository
	defaultLimit int
	maxLimit     int
	logger       *zerolog.Logger
}

func NewActivityService(repo domain.Repository, cfg config.BookingConfig, logger *zerolog.Logger) *ActivityService {
	s := &ActivityService{
		repo:         repo,
		defaultLimit: cfg.ActivityDefaultLimit,
		maxLimit:     cfg.ActivityMaxLimit,
		logger:       logger,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = models.DefaultActivityLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = models.MaxActivityLimit
	}
	return s
}

// Limit applies the default to non-positive values and caps the rest.
func (s *ActivityService) Limit(requested int) int {
	if requested <= 0 {
		return s.defaultLimit
	}
	if requested > s.maxLimit {
		return s.maxLimit
	}
	return requested
}

// ListActivity returns the newest entries first, optionally narrowed to one
// booking date and/or member.
func (s *ActivityService) ListActivity(ctx context.Context, q ActivityQuery) ([]*models.ActivityEntry, error) {
	if err := invalid(q.Validate()); err != nil {
		return nil, err
	}

	filter := models.ActivityFilter{Limit: s.Limit(q.Limit), MemberID: q.MemberID}
	if q.Date != "" {
		day, err := models.ParseDate(q.Date)
		if err != nil {
			return nil, newValidationError(err.Error())
		}
		filter.Date = day
	}

	entries, err := s.repo.ListActivity(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.ActivityEntry{}
	}
	return entries, nil
}
