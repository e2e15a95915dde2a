package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
)

func day(raw string) models.Date {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func seedShiftAndSeats(t *testing.T, s *MemStore, numbers ...string) (models.Schedule, []models.Seat) {
	t.Helper()
	ctx := context.Background()
	shift, err := s.CreateSchedule(ctx, models.Schedule{Title: "Morning"})
	require.NoError(t, err)
	seats, err := s.CreateSeats(ctx, numbers)
	require.NoError(t, err)
	return shift, seats
}

func TestMemStore_SeatPerShiftUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	shift, seats := seedShiftAndSeats(t, s, "1")
	other, err := s.CreateSchedule(ctx, models.Schedule{Title: "Evening"})
	require.NoError(t, err)

	first := models.Student{Name: "Asha", MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-06-30"),
		ShiftID: null.StringFrom(shift.ID), SeatID: null.StringFrom(seats[0].ID)}
	_, err = s.CreateStudent(ctx, first)
	require.NoError(t, err)

	second := first
	second.Name = "Ravi"
	_, err = s.CreateStudent(ctx, second)
	assert.ErrorIs(t, err, ErrSeatTaken)

	second.ShiftID = null.StringFrom(other.ID)
	created, err := s.CreateStudent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "1", created.SeatNumber.String)
	assert.Equal(t, "Evening", created.ShiftTitle.String)
}

func TestMemStore_StudentReferences(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	shift, seats := seedShiftAndSeats(t, s, "1")
	base := models.Student{Name: "Asha", MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-06-30")}

	noShift := base
	noShift.SeatID = null.StringFrom(seats[0].ID)
	_, err := s.CreateStudent(ctx, noShift)
	assert.ErrorIs(t, err, ErrSeatNeedsShift)

	badShift := base
	badShift.ShiftID = null.StringFrom("4b0c3c3e-0000-4000-8000-000000000000")
	_, err = s.CreateStudent(ctx, badShift)
	assert.ErrorIs(t, err, ErrUnknownShift)

	badSeat := base
	badSeat.ShiftID = null.StringFrom(shift.ID)
	badSeat.SeatID = null.StringFrom("4b0c3c3e-0000-4000-8000-000000000001")
	_, err = s.CreateStudent(ctx, badSeat)
	assert.ErrorIs(t, err, ErrUnknownSeat)

	withEmail := base
	withEmail.Email = null.StringFrom("a@example.com")
	_, err = s.CreateStudent(ctx, withEmail)
	require.NoError(t, err)
	_, err = s.CreateStudent(ctx, withEmail)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemStore_CreateSeatsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, err := s.CreateSeats(ctx, []string{"4"})
	require.NoError(t, err)

	_, err = s.CreateSeats(ctx, []string{"3", "4"})
	require.ErrorIs(t, err, ErrSeatNumberExists)
	var exists *SeatNumbersExistError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, []string{"4"}, exists.Numbers)

	seats, err := s.ListSeats(ctx, "")
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "4", seats[0].SeatNumber)
}

func TestMemStore_ListSeatsAssignment(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	shift, seats := seedShiftAndSeats(t, s, "10", "2", "1")
	other, err := s.CreateSchedule(ctx, models.Schedule{Title: "Evening"})
	require.NoError(t, err)
	var seatTwo string
	for _, seat := range seats {
		if seat.SeatNumber == "2" {
			seatTwo = seat.ID
		}
	}
	_, err = s.CreateStudent(ctx, models.Student{Name: "Asha", MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-06-30"),
		ShiftID: null.StringFrom(shift.ID), SeatID: null.StringFrom(seatTwo)})
	require.NoError(t, err)

	assigned := func(views []models.SeatView) map[string]bool {
		out := map[string]bool{}
		for _, v := range views {
			out[v.SeatNumber] = v.IsAssigned
		}
		return out
	}

	all, err := s.ListSeats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10"}, []string{all[0].SeatNumber, all[1].SeatNumber, all[2].SeatNumber})
	if diff := cmp.Diff(map[string]bool{"1": false, "2": true, "10": false}, assigned(all)); diff != "" {
		t.Errorf("unscoped assignment mismatch (-want +got):\n%s", diff)
	}

	scoped, err := s.ListSeats(ctx, other.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]bool{"1": false, "2": false, "10": false}, assigned(scoped)); diff != "" {
		t.Errorf("scoped assignment mismatch (-want +got):\n%s", diff)
	}
}

func TestMemStore_DeleteScheduleDetachesStudents(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	shift, seats := seedShiftAndSeats(t, s, "1")
	student, err := s.CreateStudent(ctx, models.Student{Name: "Asha", MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-06-30"),
		ShiftID: null.StringFrom(shift.ID), SeatID: null.StringFrom(seats[0].ID)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSchedule(ctx, shift.ID))
	got, err := s.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, got.ShiftID.Valid)
	assert.False(t, got.SeatID.Valid)
	assert.ErrorIs(t, s.DeleteSchedule(ctx, shift.ID), ErrNotFound)
}

func TestMemStore_UpdateStudentPatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	shift, seats := seedShiftAndSeats(t, s, "1")
	student, err := s.CreateStudent(ctx, models.Student{Name: "Asha", Phone: null.StringFrom("555"),
		MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-06-30"),
		ShiftID: null.StringFrom(shift.ID), SeatID: null.StringFrom(seats[0].ID)})
	require.NoError(t, err)

	fee := 450.5
	updated, err := s.UpdateStudent(ctx, student.ID, StudentPatch{Fee: &fee})
	require.NoError(t, err)
	assert.Equal(t, "Asha", updated.Name)
	assert.Equal(t, "555", updated.Phone.String)
	assert.Equal(t, null.Float64From(450.5), updated.Fee)
	assert.False(t, updated.ShiftID.Valid, "shift is overwritten when absent")
	assert.False(t, updated.SeatID.Valid, "seat is overwritten when absent")

	_, err = s.UpdateStudent(ctx, "missing", StudentPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_ExpireAndCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for _, end := range []string{"2026-01-10", "2026-01-20", "2026-03-01"} {
		_, err := s.CreateStudent(ctx, models.Student{Name: "S " + end, MembershipStart: day("2025-12-01"), MembershipEnd: day(end)})
		require.NoError(t, err)
	}
	n, err := s.ExpireStudents(ctx, day("2026-01-20"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err := s.CountStudentsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCounts{Total: 3, Active: 2, Expired: 1}, counts)
}

func TestMemStore_ListStudentsFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	a, err := s.CreateStudent(ctx, models.Student{Name: "Bina", Phone: null.StringFrom("98765"), MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-02-01")})
	require.NoError(t, err)
	b, err := s.CreateStudent(ctx, models.Student{Name: "Arun", MembershipStart: day("2026-01-01"), MembershipEnd: day("2026-01-15")})
	require.NoError(t, err)
	s.SetCreatedAt(a.ID, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC))
	s.SetCreatedAt(b.ID, time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC))

	byName, err := s.ListStudents(ctx, StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Arun", "Bina"}, names(byName))

	byEnd, err := s.ListStudents(ctx, StudentFilter{Order: OrderByMembershipEnd})
	require.NoError(t, err)
	assert.Equal(t, []string{"Arun", "Bina"}, names(byEnd))

	search, err := s.ListStudents(ctx, StudentFilter{Search: "876"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bina"}, names(search))

	from := day("2026-01-06")
	created, err := s.ListStudents(ctx, StudentFilter{CreatedFrom: &from})
	require.NoError(t, err)
	assert.Equal(t, []string{"Arun"}, names(created))

	target := day("2026-02-01")
	exact, err := s.ListStudents(ctx, StudentFilter{EndOn: &target, Status: models.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bina"}, names(exact))
}

func TestMemStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveSession(ctx, models.Session{ID: "live", Data: []byte(`{}`), Expire: now.Add(time.Hour)}))
	require.NoError(t, s.SaveSession(ctx, models.Session{ID: "stale", Data: []byte(`{}`), Expire: now.Add(-time.Hour)}))

	_, err := s.GetSession(ctx, "stale", now)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetSession(ctx, "live", now)
	assert.NoError(t, err)

	n, err := s.PurgeSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func names(students []models.Student) []string {
	out := make([]string, 0, len(students))
	for _, st := range students {
		out = append(out, st.Name)
	}
	return out
}
