package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"seatdesk/internal/models"
)

func (s *PGStore) ListSeats(ctx context.Context, shiftID string) ([]models.SeatView, error) {
	seats := []models.SeatView{}
	err := s.db.SelectContext(ctx, &seats, `
SELECT s.id, s.seat_number,
       EXISTS(
         SELECT 1 FROM students st
         WHERE st.seat_id = s.id AND ($1::text = '' OR st.shift_id = NULLIF($1::text, '')::uuid)
       ) AS is_assigned
FROM seats s
ORDER BY length(s.seat_number), s.seat_number
`, shiftID)
	return seats, classify(err, "list seats")
}

func (s *PGStore) SeatExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM seats WHERE id = $1)`, id)
	return exists, classify(err, "check seat")
}

// CreateSeats inserts every number or none of them.
func (s *PGStore) CreateSeats(ctx context.Context, numbers []string) ([]models.Seat, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin seats")
	}
	defer func() { _ = tx.Rollback() }()

	existing := []string{}
	if err := tx.SelectContext(ctx, &existing, `SELECT seat_number FROM seats WHERE seat_number = ANY($1)`, pq.Array(numbers)); err != nil {
		return nil, classify(err, "check seat numbers")
	}
	if len(existing) > 0 {
		return nil, &SeatNumbersExistError{Numbers: inRequestOrder(numbers, existing)}
	}

	now := time.Now().UTC()
	seats := make([]models.Seat, 0, len(numbers))
	for _, number := range numbers {
		seat := models.Seat{ID: uuid.NewString(), SeatNumber: number, CreatedAt: now}
		if _, err := tx.ExecContext(ctx, `INSERT INTO seats (id, seat_number, created_at) VALUES ($1,$2,$3)`,
			seat.ID, seat.SeatNumber, seat.CreatedAt); err != nil {
			return nil, classify(err, "insert seat")
		}
		seats = append(seats, seat)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err, "commit seats")
	}
	return seats, nil
}

func (s *PGStore) DeleteSeat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM seats WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete seat")
	}
	return affected(res, "delete seat")
}

const scheduleColumns = `id, title, description, time, event_date, created_at`

func (s *PGStore) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	err := s.db.SelectContext(ctx, &schedules, `SELECT `+scheduleColumns+` FROM schedules ORDER BY title, created_at`)
	return schedules, classify(err, "list schedules")
}

func (s *PGStore) GetSchedule(ctx context.Context, id string) (models.Schedule, error) {
	var schedule models.Schedule
	err := s.db.GetContext(ctx, &schedule, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	return schedule, classify(err, "get schedule")
}

func (s *PGStore) ScheduleExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM schedules WHERE id = $1)`, id)
	return exists, classify(err, "check schedule")
}

func (s *PGStore) CreateSchedule(ctx context.Context, schedule models.Schedule) (models.Schedule, error) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO schedules (id, title, description, time, event_date, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, schedule.ID, schedule.Title, schedule.Description, schedule.Time, optionalDate(schedule.EventDate), time.Now().UTC())
	if err != nil {
		return models.Schedule{}, classify(err, "insert schedule")
	}
	return s.GetSchedule(ctx, schedule.ID)
}

func (s *PGStore) UpdateSchedule(ctx context.Context, schedule models.Schedule) (models.Schedule, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE schedules SET title = $2, description = $3, time = $4, event_date = $5
WHERE id = $1
`, schedule.ID, schedule.Title, schedule.Description, schedule.Time, optionalDate(schedule.EventDate))
	if err != nil {
		return models.Schedule{}, classify(err, "update schedule")
	}
	if err := affected(res, "update schedule"); err != nil {
		return models.Schedule{}, err
	}
	return s.GetSchedule(ctx, schedule.ID)
}

// DeleteSchedule detaches the shift's students, clearing their seats with
// it, and removes the schedule in one transaction.
func (s *PGStore) DeleteSchedule(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin delete schedule")
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
UPDATE students SET shift_id = NULL, seat_id = NULL, updated_at = $2 WHERE shift_id = $1
`, id, time.Now().UTC()); err != nil {
		return classify(err, "detach schedule students")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete schedule")
	}
	if err := affected(res, "delete schedule"); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit delete schedule")
}

func inRequestOrder(requested, found []string) []string {
	set := make(map[string]bool, len(found))
	for _, n := range found {
		set[n] = true
	}
	ordered := make([]string, 0, len(found))
	for _, n := range requested {
		if set[n] {
			ordered = append(ordered, n)
			delete(set, n)
		}
	}
	return ordered
}
