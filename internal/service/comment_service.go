package service

import (
	"context"
	"strings"

	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
)

type CommentService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCommentService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *CommentService {
	return &CommentService{repo: repo, eventBus: eventBus, logger: logger}
}

// ListComments returns the comments of one day, oldest first.
func (s *CommentService) ListComments(ctx context.Context, date string) ([]*models.Comment, error) {
	if strings.TrimSpace(date) == "" {
		return nil, newValidationError("date is required")
	}
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	comments, err := s.repo.GetCommentsByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

func (s *CommentService) CreateComment(ctx context.Context, req CreateCommentRequest) (*models.Comment, error) {
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	day, err := models.ParseDate(req.CommentDate)
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	comment := &models.Comment{
		MemberID: req.MemberID,
		Date:     day,
		Text:     strings.TrimSpace(req.CommentText),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{CommentID: comment.ID, MemberID: comment.MemberID, Date: day.String()}
		if err := s.eventBus.PublishJSON(events.EventCommentCreated, payload); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish comment event")
		}
	}
	return comment, nil
}
