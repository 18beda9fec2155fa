package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	member, err := db.GetMemberByID(ctx, comment.MemberID)
	if err != nil {
		return err
	}

	query := db.q(`INSERT INTO comments (member_id, comment_date, comment_text, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              RETURNING id`)
	now := time.Now().UTC()
	if err := db.QueryRowContext(ctx, query, comment.MemberID, comment.Date, comment.Text, now, now).Scan(&comment.ID); err != nil {
		if mapped := db.dialect.constraintError(err); errors.Is(mapped, ErrMemberNotFound) {
			return mapped
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	comment.MemberName = member.Name
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

// GetCommentsByDate returns the comments of one day, oldest first.
func (db *DB) GetCommentsByDate(ctx context.Context, day models.Date) ([]*models.Comment, error) {
	query := db.q(`SELECT c.id, c.member_id, m.name, c.comment_date, c.comment_text, c.created_at, c.updated_at
              FROM comments c
              JOIN members m ON m.id = c.member_id
              WHERE c.comment_date = ?
              ORDER BY c.created_at ASC, c.id ASC`)

	rows, err := db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.MemberID, &c.MemberName, &c.Date, &c.Text, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
