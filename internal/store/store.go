package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSeatTaken        = errors.New("seat already assigned in shift")
	ErrSeatNeedsShift   = errors.New("seat assigned without shift")
	ErrDuplicateEmail   = errors.New("email already in use")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrSeatNumberExists = errors.New("seat number already exists")
	ErrUnknownShift     = errors.New("unknown shift")
	ErrUnknownSeat      = errors.New("unknown seat")
	ErrOutOfRange       = errors.New("numeric value out of range")
)

// SeatNumbersExistError lists the requested seat numbers that are already
// stored. It matches ErrSeatNumberExists with errors.Is.
type SeatNumbersExistError struct {
	Numbers []string
}

func (e *SeatNumbersExistError) Error() string {
	return "seat numbers already exist: " + strings.Join(e.Numbers, ", ")
}

func (e *SeatNumbersExistError) Is(target error) bool {
	return target == ErrSeatNumberExists
}

type StudentOrder int

const (
	OrderByName StudentOrder = iota
	OrderByMembershipEnd
)

// StudentFilter narrows ListStudents. Zero fields do not filter.
type StudentFilter struct {
	Status        string
	ShiftID       string
	Search        string
	CreatedFrom   *models.Date
	CreatedTo     *models.Date
	EndOn         *models.Date
	EndOnOrBefore *models.Date
	Order         StudentOrder
}

// StudentPatch is a partial update. Nil pointers leave the column as it is;
// ShiftID and SeatID are always written.
type StudentPatch struct {
	Name            *string
	AdmissionNo     *string
	Email           *string
	Phone           *string
	Address         *string
	MembershipStart *models.Date
	MembershipEnd   *models.Date
	Fee             *float64
	ProfileImageURL *string
	Status          *string
	ShiftID         null.String
	SeatID          null.String
}

type StatusCounts struct {
	Total   int `db:"total" json:"total_students"`
	Active  int `db:"active" json:"active_students"`
	Expired int `db:"expired" json:"expired_memberships"`
}

type UserStore interface {
	CountUsers(ctx context.Context) (int, error)
	CountAdmins(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, fullName, email null.String) (models.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	DeleteUser(ctx context.Context, id string) error
}

type StudentStore interface {
	CreateStudent(ctx context.Context, student models.Student) (models.Student, error)
	UpdateStudent(ctx context.Context, id string, patch StudentPatch) (models.Student, error)
	RenewStudent(ctx context.Context, id string, start, end models.Date) (models.Student, error)
	DeleteStudent(ctx context.Context, id string) (models.Student, error)
	GetStudent(ctx context.Context, id string) (models.Student, error)
	ListStudents(ctx context.Context, filter StudentFilter) ([]models.Student, error)
	EmailInUse(ctx context.Context, email, excludeID string) (bool, error)
	CountStudentsByStatus(ctx context.Context) (StatusCounts, error)
	ExpireStudents(ctx context.Context, today models.Date) (int64, error)
}

type SeatStore interface {
	ListSeats(ctx context.Context, shiftID string) ([]models.SeatView, error)
	SeatExists(ctx context.Context, id string) (bool, error)
	CreateSeats(ctx context.Context, numbers []string) ([]models.Seat, error)
	DeleteSeat(ctx context.Context, id string) error
}

type ScheduleStore interface {
	ListSchedules(ctx context.Context) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (models.Schedule, error)
	ScheduleExists(ctx context.Context, id string) (bool, error)
	CreateSchedule(ctx context.Context, schedule models.Schedule) (models.Schedule, error)
	UpdateSchedule(ctx context.Context, schedule models.Schedule) (models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

type SettingStore interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	PutSettings(ctx context.Context, values map[string]string) error
}

type SessionRowStore interface {
	GetSession(ctx context.Context, sid string, now time.Time) (models.Session, error)
	SaveSession(ctx context.Context, session models.Session) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	PurgeSessions(ctx context.Context, now time.Time) (int64, error)
}

type MediaStore interface {
	CreateMediaAsset(ctx context.Context, asset models.MediaAsset) error
	GetMediaAsset(ctx context.Context, id string) (models.MediaAsset, error)
}

// Store is the persistence facade used by services. PGStore backs it in
// production, MemStore in tests and local runs without a database.
type Store interface {
	UserStore
	StudentStore
	SeatStore
	ScheduleStore
	SettingStore
	SessionRowStore
	MediaStore
	Ping(ctx context.Context) error
}
