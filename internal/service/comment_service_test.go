package service

import (
	"context"
	"testing"

	"slotbook/internal/database"
	"slotbook/internal/events"
	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	ctx := context.Background()

	t.Run("ListRequiresDate", func(t *testing.T) {
		s := NewCommentService(new(mockRepo), nil, testLogger())
		_, err := s.ListComments(ctx, "")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "date is required", ve.Message)
	})

	t.Run("List", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewCommentService(repo, nil, testLogger())
		comments := []*models.Comment{{ID: 1, Text: "first"}, {ID: 2, Text: "second"}}
		repo.On("GetCommentsByDate", ctx, date("2025-09-10")).Return(comments, nil).Once()

		got, err := s.ListComments(ctx, "2025-09-10")
		require.NoError(t, err)
		assert.Equal(t, comments, got)
	})

	t.Run("Create", func(t *testing.T) {
		repo := new(mockRepo)
		pub := new(mockPublisher)
		s := NewCommentService(repo, pub, testLogger())

		repo.On("CreateComment", ctx, mock.MatchedBy(func(c *models.Comment) bool {
			return c.MemberID == 4 && c.Text == "See you there" && c.Date.String() == "2025-09-10"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Comment).ID = 9
		}).Return(nil).Once()
		pub.On("PublishJSON", events.EventCommentCreated, events.CommentEventPayload{CommentID: 9, MemberID: 4, Date: "2025-09-10"}).Return(nil).Once()

		c, err := s.CreateComment(ctx, CreateCommentRequest{MemberID: 4, CommentDate: "2025-09-10", CommentText: "  See you there  "})
		require.NoError(t, err)
		assert.Equal(t, int64(9), c.ID)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("WhitespaceTextRejected", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewCommentService(repo, nil, testLogger())

		_, err := s.CreateComment(ctx, CreateCommentRequest{MemberID: 4, CommentDate: "2025-09-10", CommentText: " \n\t "})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "comment text is required")
		repo.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
	})

	t.Run("ZeroDate", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewCommentService(repo, nil, testLogger())

		_, err := s.CreateComment(ctx, CreateCommentRequest{MemberID: 4, CommentDate: "0001-01-01", CommentText: "hi"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		repo.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
	})

	t.Run("MissingEverything", func(t *testing.T) {
		s := NewCommentService(new(mockRepo), nil, testLogger())

		_, err := s.CreateComment(ctx, CreateCommentRequest{})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "memberId")
		assert.Contains(t, ve.Message, "commentDate")
		assert.Contains(t, ve.Message, "commentText")
	})

	t.Run("UnknownMember", func(t *testing.T) {
		repo := new(mockRepo)
		s := NewCommentService(repo, nil, testLogger())
		repo.On("CreateComment", ctx, mock.Anything).Return(database.ErrMemberNotFound).Once()

		_, err := s.CreateComment(ctx, CreateCommentRequest{MemberID: 99, CommentDate: "2025-09-10", CommentText: "hi"})
		assert.ErrorIs(t, err, database.ErrMemberNotFound)
	})
}
