package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/db"
	"seatdesk/internal/migrations"
	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

// Runs against a throwaway database named by SEATDESK_TEST_DATABASE_URL.
func openPG(t *testing.T) *store.PGStore {
	t.Helper()
	dsn := os.Getenv("SEATDESK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SEATDESK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = migrations.Apply(conn)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `TRUNCATE students, seats, schedules, settings, session, media_assets, users`)
	require.NoError(t, err)
	return store.NewPGStore(conn)
}

func TestPGStore_Constraints(t *testing.T) {
	s := openPG(t)
	ctx := context.Background()
	start, _ := models.ParseDate("2026-01-01")
	end, _ := models.ParseDate("2026-06-30")

	shift, err := s.CreateSchedule(ctx, models.Schedule{Title: "Morning"})
	require.NoError(t, err)
	seats, err := s.CreateSeats(ctx, []string{"1", "2"})
	require.NoError(t, err)

	first := models.Student{Name: "Asha", Email: null.StringFrom("asha@example.com"), MembershipStart: start, MembershipEnd: end,
		ShiftID: null.StringFrom(shift.ID), SeatID: null.StringFrom(seats[0].ID)}
	created, err := s.CreateStudent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "1", created.SeatNumber.String)
	assert.Equal(t, models.StatusActive, created.Status)

	dup := first
	dup.Email = null.StringFrom("other@example.com")
	_, err = s.CreateStudent(ctx, dup)
	assert.ErrorIs(t, err, store.ErrSeatTaken)

	dup = first
	dup.SeatID, dup.ShiftID = null.String{}, null.String{}
	_, err = s.CreateStudent(ctx, dup)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = s.CreateSeats(ctx, []string{"3", "2"})
	assert.ErrorIs(t, err, store.ErrSeatNumberExists)
	views, err := s.ListSeats(ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].IsAssigned)
	assert.False(t, views[1].IsAssigned)

	require.NoError(t, s.DeleteSchedule(ctx, shift.ID))
	got, err := s.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.ShiftID.Valid)
	assert.False(t, got.SeatID.Valid)
}

func TestPGStore_UsersAndSettings(t *testing.T) {
	s := openPG(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, models.User{Username: "desk", PasswordHash: "x", Role: models.RoleStaff,
		Permissions: []string{"manage_students"}}))
	assert.ErrorIs(t, s.CreateUser(ctx, models.User{Username: "desk", PasswordHash: "y", Role: models.RoleStaff}), store.ErrUsernameTaken)

	user, err := s.GetUserByUsername(ctx, "desk")
	require.NoError(t, err)
	assert.Equal(t, []string{"manage_students"}, []string(user.Permissions))

	require.NoError(t, s.PutSettings(ctx, map[string]string{"days_before_expiration": "3"}))
	values, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", values["days_before_expiration"])
}
