//go:build integration

package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "slotbook",
			"POSTGRES_PASSWORD": "slotbook",
			"POSTGRES_DB":       "slotbook",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	dsn := fmt.Sprintf("postgres://slotbook:slotbook@%s:%s/slotbook?sslmode=disable", host, port.Port())
	db, err := NewDB(config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn, MaxOpenConns: 10}, models.DefaultDailyCapacity, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresBookingLifecycle(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	day := mustDate(t, "2025-09-10")

	names := make([]string, 12)
	for i := range names {
		names[i] = fmt.Sprintf("Member %02d", i)
	}
	members := seedMembers(t, db, names...)

	var wg sync.WaitGroup
	results := make(chan error, len(members))
	for _, m := range members {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			results <- db.CreateBookingWithLock(ctx, &models.Booking{MemberID: id, Date: day}, "Web App")
		}(m.ID)
	}
	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.True(t, errors.Is(err, ErrCapacityExceeded), "unexpected error: %v", err)
	}
	assert.Equal(t, models.DefaultDailyCapacity, successCount)

	bookings, err := db.GetBookingsByDateRange(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, bookings, models.DefaultDailyCapacity)

	holder := bookings[0]
	err = db.CreateBookingWithLock(ctx, &models.Booking{MemberID: holder.MemberID, Date: day.AddDays(1)}, "Web App")
	require.NoError(t, err)
	err = db.CreateBookingWithLock(ctx, &models.Booking{MemberID: holder.MemberID, Date: day.AddDays(1)}, "Web App")
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	cancelled, err := db.CancelBooking(ctx, holder.MemberID, day, "Web App")
	require.NoError(t, err)
	assert.Equal(t, holder.SlotNumber, cancelled.SlotNumber)

	_, err = db.CancelBooking(ctx, holder.MemberID, day, "Web App")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	activity, err := db.ListActivity(ctx, models.ActivityFilter{Limit: 1, Date: day})
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, models.ActionCancelled, activity[0].Action)

	counts, err := db.GetMemberBookingCounts(ctx, mustDate(t, "2025-09-01"), mustDate(t, "2025-09-30"))
	require.NoError(t, err)
	assert.Len(t, counts, len(members))

	require.NoError(t, db.CreateComment(ctx, &models.Comment{MemberID: holder.MemberID, Date: day, Text: "hello"}))
	comments, err := db.GetCommentsByDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, comments[0].Date.Equal(day))
}
