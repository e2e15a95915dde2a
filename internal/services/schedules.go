package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

const msgScheduleNotFound = "Schedule not found"

type ScheduleInput struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Time        *string      `json:"time"`
	EventDate   *models.Date `json:"event_date"`
}

// ScheduleWithStudents is a shift and the students assigned to it.
type ScheduleWithStudents struct {
	models.Schedule
	Students []models.Student `json:"students"`
}

type ScheduleService struct {
	store store.Store
}

func NewScheduleService(st store.Store) *ScheduleService {
	return &ScheduleService{store: st}
}

func (s *ScheduleService) List(ctx context.Context) ([]models.Schedule, error) {
	return s.store.ListSchedules(ctx)
}

func (s *ScheduleService) ListWithStudents(ctx context.Context) ([]ScheduleWithStudents, error) {
	schedules, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleWithStudents, 0, len(schedules))
	for _, schedule := range schedules {
		students, err := s.store.ListStudents(ctx, store.StudentFilter{ShiftID: schedule.ID})
		if err != nil {
			return nil, err
		}
		out = append(out, ScheduleWithStudents{Schedule: schedule, Students: students})
	}
	return out, nil
}

func (s *ScheduleService) Get(ctx context.Context, id string) (models.Schedule, error) {
	if !validID(id) {
		return models.Schedule{}, ErrNotFound(msgScheduleNotFound)
	}
	schedule, err := s.store.GetSchedule(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Schedule{}, ErrNotFound(msgScheduleNotFound)
	}
	return schedule, err
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (models.Schedule, error) {
	title := trimmed(in.Title)
	if title == nil || *title == "" {
		return models.Schedule{}, ErrBadRequest("Title is required")
	}
	return s.store.CreateSchedule(ctx, models.Schedule{
		Title:       *title,
		Description: null.StringFromPtr(emptyAsNil(in.Description)),
		Time:        null.StringFromPtr(emptyAsNil(in.Time)),
		EventDate:   nonZeroDate(in.EventDate),
	})
}

// Update replaces the schedule's fields; an absent title keeps the old one.
func (s *ScheduleService) Update(ctx context.Context, id string, in ScheduleInput) (models.Schedule, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Schedule{}, err
	}
	if title := trimmed(in.Title); title != nil {
		if *title == "" {
			return models.Schedule{}, ErrBadRequest("Title is required")
		}
		current.Title = *title
	}
	current.Description = null.StringFromPtr(emptyAsNil(in.Description))
	current.Time = null.StringFromPtr(emptyAsNil(in.Time))
	current.EventDate = nonZeroDate(in.EventDate)
	updated, err := s.store.UpdateSchedule(ctx, current)
	if errors.Is(err, store.ErrNotFound) {
		return models.Schedule{}, ErrNotFound(msgScheduleNotFound)
	}
	return updated, err
}

// Delete removes the schedule and unassigns its students from both the
// shift and their seat.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound(msgScheduleNotFound)
	}
	err := s.store.DeleteSchedule(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(msgScheduleNotFound)
	}
	return err
}

func nonZeroDate(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
