package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

type SeatBatchInput struct {
	SeatNumbers json.RawMessage `json:"seat_numbers"`
}

type SeatService struct {
	store store.Store
}

func NewSeatService(st store.Store) *SeatService {
	return &SeatService{store: st}
}

// List returns all seats with is_assigned computed against every student,
// or only against students of shiftID when it is set.
func (s *SeatService) List(ctx context.Context, shiftID string) ([]models.SeatView, error) {
	shiftID = strings.TrimSpace(shiftID)
	if shiftID != "" {
		id, err := uuid.Parse(shiftID)
		if err != nil {
			return nil, ErrBadRequest(msgInvalidShift)
		}
		// Stored ids are canonical lowercase.
		shiftID = id.String()
	}
	return s.store.ListSeats(ctx, shiftID)
}

// ParseSeatNumbers splits a comma-separated list, dropping blanks.
func ParseSeatNumbers(raw json.RawMessage) ([]string, error) {
	var list string
	if len(raw) == 0 || json.Unmarshal(raw, &list) != nil || list == "" {
		return nil, ErrBadRequest("seat_numbers must be a comma-separated string")
	}
	numbers := []string{}
	for _, part := range strings.Split(list, ",") {
		if n := strings.TrimSpace(part); n != "" {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil, ErrBadRequest("No seat numbers provided")
	}
	seen := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		if seen[n] {
			return nil, ErrBadRequest("Duplicate seat numbers in input")
		}
		seen[n] = true
	}
	return numbers, nil
}

// Create adds every requested seat or none of them.
func (s *SeatService) Create(ctx context.Context, in SeatBatchInput) ([]models.Seat, error) {
	numbers, err := ParseSeatNumbers(in.SeatNumbers)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.CreateSeats(ctx, numbers)
	if err != nil {
		var exists *store.SeatNumbersExistError
		if errors.As(err, &exists) {
			return nil, ErrBadRequest("Seat numbers already exist: " + strings.Join(exists.Numbers, ", "))
		}
		if errors.Is(err, store.ErrSeatNumberExists) {
			return nil, ErrBadRequest("Seat numbers already exist")
		}
		return nil, err
	}
	return seats, nil
}

func (s *SeatService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound("Seat not found")
	}
	err := s.store.DeleteSeat(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound("Seat not found")
	}
	return err
}
