package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatdesk/internal/store"
)

func TestScheduleService_CRUD(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := NewScheduleService(st)

	_, err := svc.Create(ctx, ScheduleInput{Title: strPtr("  ")})
	requireStatus(t, err, http.StatusBadRequest, "Title is required")

	created, err := svc.Create(ctx, ScheduleInput{
		Title:     strPtr("Morning"),
		Time:      strPtr("06:00-12:00"),
		EventDate: datePtr("2026-03-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "06:00-12:00", created.Time.String)

	updated, err := svc.Update(ctx, created.ID, ScheduleInput{Description: strPtr("Early birds")})
	require.NoError(t, err)
	assert.Equal(t, "Morning", updated.Title)
	assert.Equal(t, "Early birds", updated.Description.String)
	assert.False(t, updated.Time.Valid)
	assert.Nil(t, updated.EventDate)

	_, err = svc.Get(ctx, "not-a-uuid")
	requireStatus(t, err, http.StatusNotFound, msgScheduleNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	requireStatus(t, svc.Delete(ctx, created.ID), http.StatusNotFound, msgScheduleNotFound)
}

func TestScheduleService_DeleteUnassignsStudents(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := NewScheduleService(st)
	students := NewStudentService(st, fixedClock("2026-03-10 09:00"), 30)
	shift := seedShift(t, st, "Morning")
	seats := seedSeats(t, st, "1")

	in := baseStudent("Asha")
	in.ShiftID = strPtr(shift.ID)
	in.SeatID = strPtr(seats[0].ID)
	asha, err := students.Create(ctx, in)
	require.NoError(t, err)

	withStudents, err := svc.ListWithStudents(ctx)
	require.NoError(t, err)
	require.Len(t, withStudents, 1)
	require.Len(t, withStudents[0].Students, 1)

	require.NoError(t, svc.Delete(ctx, shift.ID))
	got, err := students.Get(ctx, asha.ID)
	require.NoError(t, err)
	assert.False(t, got.ShiftID.Valid)
	assert.False(t, got.SeatID.Valid)
}
