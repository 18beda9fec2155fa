package service

import (
	"context"
	"errors"
	"testing"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberService(t *testing.T) {
	ctx := context.Background()

	t.Run("ListMembers", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewMemberService(repo, testLogger())
		members := []*models.Member{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}}
		repo.On("GetAllMembers", ctx).Return(members, nil).Once()

		got, err := s.ListMembers(ctx)
		require.NoError(t, err)
		assert.Equal(t, members, got)
	})

	t.Run("ListMembersEmpty", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewMemberService(repo, testLogger())
		repo.On("GetAllMembers", ctx).Return(nil, nil).Once()

		got, err := s.ListMembers(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("ListMembersError", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewMemberService(repo, testLogger())
		repo.On("GetAllMembers", ctx).Return(nil, errors.New("disk I/O error")).Once()

		_, err := s.ListMembers(ctx)
		assert.Error(t, err)
	})

	t.Run("SeedMembers", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewMemberService(repo, testLogger())
		roster := []models.Member{{Name: "Alice"}, {Name: "Bob"}}
		repo.On("SyncMembers", ctx, roster).Return(nil).Once()

		require.NoError(t, s.SeedMembers(ctx, roster))
		require.NoError(t, s.SeedMembers(ctx, nil))
		repo.AssertNumberOfCalls(t, "SyncMembers", 1)
	})
}
