package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

func fixedClock(raw string) Clock {
	at, err := time.Parse("2006-01-02 15:04", raw)
	if err != nil {
		panic(err)
	}
	return Clock{Location: time.UTC, Now: func() time.Time { return at }}
}

func datePtr(raw string) *models.Date {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return &d
}

func strPtr(s string) *string { return &s }

func requireStatus(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := AsServiceError(err)
	require.True(t, ok, "expected ServiceError, got %v", err)
	require.Equal(t, status, svcErr.Status)
	if message != "" {
		require.Equal(t, message, svcErr.Message)
	}
}

func seedShift(t *testing.T, st store.Store, title string) models.Schedule {
	t.Helper()
	shift, err := st.CreateSchedule(context.Background(), models.Schedule{Title: title})
	require.NoError(t, err)
	return shift
}

func seedSeats(t *testing.T, st store.Store, numbers ...string) []models.Seat {
	t.Helper()
	seats, err := st.CreateSeats(context.Background(), numbers)
	require.NoError(t, err)
	return seats
}
