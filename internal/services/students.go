package services

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

const (
	msgStudentNotFound    = "Student not found"
	msgStudentRequired    = "Name, membership start, and membership end dates are required"
	msgRenewRequired      = "Membership start and end dates are required"
	msgEmailInUse         = "Email already in use"
	msgEmailInUseUpdate   = "Email already in use by another student"
	msgSeatNeedsShift     = "Shift must be selected when assigning a seat"
	msgInvalidShift       = "Invalid shift ID"
	msgInvalidSeat        = "Invalid seat ID"
	msgSeatTaken          = "Selected seat is already assigned to another student in the same shift"
	msgMembershipBackward = "Membership end date cannot be before the start date"
	msgInvalidFee         = "Invalid fee"
)

// feeLimit is the first magnitude numeric(10,2) cannot hold after rounding.
const feeLimit = 99999999.995

// Amount is a decimal sent either as a JSON number or a numeric string.
// Null and "" leave it unset. Anything that is not a finite number that fits
// the fee column marks it Invalid.
type Amount struct {
	Value   float64
	Set     bool
	Invalid bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || math.Abs(value) >= feeLimit {
		*a = Amount{Invalid: true}
		return nil
	}
	*a = Amount{Value: value, Set: true}
	return nil
}

// StudentInput is the create/update payload. Pointers distinguish absent
// fields from empty ones.
type StudentInput struct {
	Name            *string      `json:"name"`
	AdmissionNo     *string      `json:"admission_no"`
	Email           *string      `json:"email" validate:"omitempty,email"`
	Phone           *string      `json:"phone" validate:"omitempty,notblank"`
	Address         *string      `json:"address"`
	MembershipStart *models.Date `json:"membership_start"`
	MembershipEnd   *models.Date `json:"membership_end"`
	ShiftID         *string      `json:"shift_id"`
	SeatID          *string      `json:"seat_id"`
	Fee             Amount       `json:"fee"`
	ProfileImageURL *string      `json:"profile_image_url"`
	Status          *string      `json:"status" validate:"omitempty,oneof=active expired"`
}

func (in *StudentInput) normalize() {
	in.Name = trimmed(in.Name)
	in.AdmissionNo = emptyAsNil(in.AdmissionNo)
	in.Email = trimmed(in.Email)
	if in.Email != nil && *in.Email == "" {
		in.Email = nil
	}
	in.Phone = emptyAsNil(in.Phone)
	in.Address = emptyAsNil(in.Address)
	in.ShiftID = trimmed(in.ShiftID)
	if in.ShiftID != nil && *in.ShiftID == "" {
		in.ShiftID = nil
	}
	in.SeatID = trimmed(in.SeatID)
	if in.SeatID != nil && *in.SeatID == "" {
		in.SeatID = nil
	}
	in.ProfileImageURL = emptyAsNil(in.ProfileImageURL)
	if in.MembershipStart != nil && in.MembershipStart.IsZero() {
		in.MembershipStart = nil
	}
	if in.MembershipEnd != nil && in.MembershipEnd.IsZero() {
		in.MembershipEnd = nil
	}
}

type RenewInput struct {
	MembershipStart *models.Date `json:"membership_start"`
	MembershipEnd   *models.Date `json:"membership_end"`
}

type StudentService struct {
	store            store.Store
	clock            Clock
	expiringSoonDays int
}

func NewStudentService(st store.Store, clock Clock, expiringSoonDays int) *StudentService {
	if expiringSoonDays < 1 {
		expiringSoonDays = 30
	}
	return &StudentService{store: st, clock: clock, expiringSoonDays: expiringSoonDays}
}

func (s *StudentService) Create(ctx context.Context, in StudentInput) (models.Student, error) {
	in.normalize()
	if in.Name == nil || *in.Name == "" || in.MembershipStart == nil || in.MembershipEnd == nil {
		return models.Student{}, ErrBadRequest(msgStudentRequired)
	}
	if in.Fee.Invalid {
		return models.Student{}, ErrBadRequest(msgInvalidFee)
	}
	if err := Validate(in); err != nil {
		return models.Student{}, err
	}
	if in.MembershipEnd.Before(*in.MembershipStart) {
		return models.Student{}, ErrBadRequest(msgMembershipBackward)
	}
	if in.Email != nil {
		inUse, err := s.store.EmailInUse(ctx, *in.Email, "")
		if err != nil {
			return models.Student{}, err
		}
		if inUse {
			return models.Student{}, ErrBadRequest(msgEmailInUse)
		}
	}
	if err := s.checkAssignment(ctx, in.ShiftID, in.SeatID); err != nil {
		return models.Student{}, err
	}
	student := models.Student{
		Name:            *in.Name,
		AdmissionNo:     null.StringFromPtr(in.AdmissionNo),
		Email:           null.StringFromPtr(in.Email),
		Phone:           null.StringFromPtr(in.Phone),
		Address:         null.StringFromPtr(in.Address),
		MembershipStart: *in.MembershipStart,
		MembershipEnd:   *in.MembershipEnd,
		ShiftID:         null.StringFromPtr(in.ShiftID),
		SeatID:          null.StringFromPtr(in.SeatID),
		Status:          models.StatusActive,
		Fee:             null.NewFloat64(in.Fee.Value, in.Fee.Set),
		ProfileImageURL: null.StringFromPtr(in.ProfileImageURL),
	}
	created, err := s.store.CreateStudent(ctx, student)
	if err != nil {
		return models.Student{}, studentStoreError(err, msgEmailInUse)
	}
	return created, nil
}

// Update applies a partial change. Absent fields keep their values, except
// shift_id and seat_id which are always replaced.
func (s *StudentService) Update(ctx context.Context, id string, in StudentInput) (models.Student, error) {
	if !validID(id) {
		return models.Student{}, ErrNotFound(msgStudentNotFound)
	}
	in.normalize()
	if in.SeatID != nil && in.ShiftID == nil {
		return models.Student{}, ErrBadRequest(msgSeatNeedsShift)
	}
	if in.Fee.Invalid {
		return models.Student{}, ErrBadRequest(msgInvalidFee)
	}
	if err := Validate(in); err != nil {
		return models.Student{}, err
	}
	if in.MembershipStart != nil || in.MembershipEnd != nil {
		current, err := s.Get(ctx, id)
		if err != nil {
			return models.Student{}, err
		}
		start, end := current.MembershipStart, current.MembershipEnd
		if in.MembershipStart != nil {
			start = *in.MembershipStart
		}
		if in.MembershipEnd != nil {
			end = *in.MembershipEnd
		}
		if end.Before(start) {
			return models.Student{}, ErrBadRequest(msgMembershipBackward)
		}
	}
	if in.Email != nil {
		inUse, err := s.store.EmailInUse(ctx, *in.Email, id)
		if err != nil {
			return models.Student{}, err
		}
		if inUse {
			return models.Student{}, ErrBadRequest(msgEmailInUseUpdate)
		}
	}
	if err := s.checkAssignment(ctx, in.ShiftID, in.SeatID); err != nil {
		return models.Student{}, err
	}
	patch := store.StudentPatch{
		Name:            in.Name,
		AdmissionNo:     in.AdmissionNo,
		Email:           in.Email,
		Phone:           in.Phone,
		Address:         in.Address,
		MembershipStart: in.MembershipStart,
		MembershipEnd:   in.MembershipEnd,
		ProfileImageURL: in.ProfileImageURL,
		Status:          in.Status,
		ShiftID:         null.StringFromPtr(in.ShiftID),
		SeatID:          null.StringFromPtr(in.SeatID),
	}
	if patch.Name != nil && *patch.Name == "" {
		patch.Name = nil
	}
	if in.Fee.Set {
		fee := in.Fee.Value
		patch.Fee = &fee
	}
	updated, err := s.store.UpdateStudent(ctx, id, patch)
	if err != nil {
		return models.Student{}, studentStoreError(err, msgEmailInUseUpdate)
	}
	return updated, nil
}

// Renew sets new membership dates and always marks the student active.
func (s *StudentService) Renew(ctx context.Context, id string, in RenewInput) (models.Student, error) {
	if missingDate(in.MembershipStart) || missingDate(in.MembershipEnd) {
		return models.Student{}, ErrBadRequest(msgRenewRequired)
	}
	if in.MembershipEnd.Before(*in.MembershipStart) {
		return models.Student{}, ErrBadRequest(msgMembershipBackward)
	}
	if !validID(id) {
		return models.Student{}, ErrNotFound(msgStudentNotFound)
	}
	renewed, err := s.store.RenewStudent(ctx, id, *in.MembershipStart, *in.MembershipEnd)
	if err != nil {
		return models.Student{}, studentStoreError(err, msgEmailInUseUpdate)
	}
	return renewed, nil
}

func (s *StudentService) Delete(ctx context.Context, id string) (models.Student, error) {
	if !validID(id) {
		return models.Student{}, ErrNotFound(msgStudentNotFound)
	}
	deleted, err := s.store.DeleteStudent(ctx, id)
	if err != nil {
		return models.Student{}, studentStoreError(err, msgEmailInUse)
	}
	return deleted, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (models.Student, error) {
	if !validID(id) {
		return models.Student{}, ErrNotFound(msgStudentNotFound)
	}
	student, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return models.Student{}, studentStoreError(err, msgEmailInUse)
	}
	return student, nil
}

// List returns every student, optionally limited to those created between
// from and to (inclusive).
func (s *StudentService) List(ctx context.Context, from, to *models.Date) ([]models.Student, error) {
	return s.store.ListStudents(ctx, store.StudentFilter{CreatedFrom: from, CreatedTo: to})
}

func (s *StudentService) Active(ctx context.Context) ([]models.Student, error) {
	return s.store.ListStudents(ctx, store.StudentFilter{Status: models.StatusActive})
}

func (s *StudentService) Expired(ctx context.Context) ([]models.Student, error) {
	return s.store.ListStudents(ctx, store.StudentFilter{Status: models.StatusExpired})
}

// ExpiringSoon lists active members whose membership ends within the
// configured window, soonest first.
func (s *StudentService) ExpiringSoon(ctx context.Context) ([]models.Student, error) {
	limit := s.clock.Today().AddDays(s.expiringSoonDays)
	return s.store.ListStudents(ctx, store.StudentFilter{
		Status:        models.StatusActive,
		EndOnOrBefore: &limit,
		Order:         store.OrderByMembershipEnd,
	})
}

// ByShift lists a shift's students. status is "active", "expired", or
// "all"/"" for no filter; search matches name or phone.
func (s *StudentService) ByShift(ctx context.Context, shiftID, search, status string) ([]models.Student, error) {
	if !validID(shiftID) {
		return nil, ErrBadRequest(msgInvalidShift)
	}
	filter := store.StudentFilter{ShiftID: shiftID, Search: strings.TrimSpace(search)}
	switch status {
	case "", "all":
	case models.StatusActive, models.StatusExpired:
		filter.Status = status
	default:
		return nil, ErrBadRequest("Invalid status filter")
	}
	return s.store.ListStudents(ctx, filter)
}

// Dashboard counts students by their stored status.
func (s *StudentService) Dashboard(ctx context.Context) (store.StatusCounts, error) {
	return s.store.CountStudentsByStatus(ctx)
}

// ExpireLapsed marks active students whose membership ended before today as
// expired and returns how many changed.
func (s *StudentService) ExpireLapsed(ctx context.Context) (int64, error) {
	return s.store.ExpireStudents(ctx, s.clock.Today())
}

func (s *StudentService) checkAssignment(ctx context.Context, shiftID, seatID *string) error {
	if seatID != nil && shiftID == nil {
		return ErrBadRequest(msgSeatNeedsShift)
	}
	if shiftID != nil {
		if !validID(*shiftID) {
			return ErrBadRequest(msgInvalidShift)
		}
		exists, err := s.store.ScheduleExists(ctx, *shiftID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrBadRequest(msgInvalidShift)
		}
	}
	if seatID != nil {
		if !validID(*seatID) {
			return ErrBadRequest(msgInvalidSeat)
		}
		exists, err := s.store.SeatExists(ctx, *seatID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrBadRequest(msgInvalidSeat)
		}
	}
	return nil
}

func studentStoreError(err error, emailMsg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound(msgStudentNotFound)
	case errors.Is(err, store.ErrSeatTaken):
		return ErrBadRequest(msgSeatTaken)
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrBadRequest(emailMsg)
	case errors.Is(err, store.ErrSeatNeedsShift):
		return ErrBadRequest(msgSeatNeedsShift)
	case errors.Is(err, store.ErrUnknownShift):
		return ErrBadRequest(msgInvalidShift)
	case errors.Is(err, store.ErrUnknownSeat):
		return ErrBadRequest(msgInvalidSeat)
	case errors.Is(err, store.ErrOutOfRange):
		return ErrBadRequest(msgInvalidFee)
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
