package service

import (
	"context"

	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
)

type MemberService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewMemberService(repo domain.Repository, logger *zerolog.Logger) *MemberService {
	return &MemberService{repo: repo, logger: logger}
}

// ListMembers returns all members ordered by name.
func (s *MemberService) ListMembers(ctx context.Context) ([]*models.Member, error) {
	members, err := s.repo.GetAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*models.Member{}
	}
	return members, nil
}

// SeedMembers upserts the configured roster. An empty roster is a no-op.
func (s *MemberService) SeedMembers(ctx context.Context, members []models.Member) error {
	if len(members) == 0 {
		return nil
	}
	if err := s.repo.SyncMembers(ctx, members); err != nil {
		return err
	}
	s.logger.Info().Int("count", len(members)).Msg("Members synchronized from config")
	return nil
}
