package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
)

// MemStore is an in-memory Store. It enforces the same uniqueness, reference
// and seat/shift rules as the SQL schema.
type MemStore struct {
	mu        sync.Mutex
	users     map[string]models.User
	students  map[string]models.Student
	seats     map[string]models.Seat
	schedules map[string]models.Schedule
	settings  map[string]string
	sessions  map[string]models.Session
	media     map[string]models.MediaAsset
	now       func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:     map[string]models.User{},
		students:  map[string]models.Student{},
		seats:     map[string]models.Seat{},
		schedules: map[string]models.Schedule{},
		settings:  map[string]string{},
		sessions:  map[string]models.Session{},
		media:     map[string]models.MediaAsset{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

// --- users ---

func (s *MemStore) CountUsers(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *MemStore) CountAdmins(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, u := range s.users {
		if u.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) CreateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Permissions == nil {
		user.Permissions = []string{}
	}
	user.Permissions = append([]string{}, user.Permissions...)
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return nil
}

func (s *MemStore) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *MemStore) UpdateProfile(ctx context.Context, id string, fullName, email null.String) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if fullName.Valid {
		u.FullName = fullName
	}
	if email.Valid {
		u.Email = email
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return u, nil
}

func (s *MemStore) UpdatePassword(ctx context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *MemStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for key, asset := range s.media {
		if asset.UploadedBy.Valid && asset.UploadedBy.String == id {
			asset.UploadedBy = null.String{}
			s.media[key] = asset
		}
	}
	return nil
}

// --- students ---

// checkStudentLocked mirrors the students table constraints for a row about
// to be written.
func (s *MemStore) checkStudentLocked(student models.Student) error {
	if student.SeatID.Valid && !student.ShiftID.Valid {
		return ErrSeatNeedsShift
	}
	if student.ShiftID.Valid {
		if _, ok := s.schedules[student.ShiftID.String]; !ok {
			return ErrUnknownShift
		}
	}
	if student.SeatID.Valid {
		if _, ok := s.seats[student.SeatID.String]; !ok {
			return ErrUnknownSeat
		}
	}
	for id, other := range s.students {
		if id == student.ID {
			continue
		}
		if student.Email.Valid && other.Email.Valid && other.Email.String == student.Email.String {
			return ErrDuplicateEmail
		}
		if student.SeatID.Valid && student.ShiftID.Valid &&
			other.SeatID == student.SeatID && other.ShiftID == student.ShiftID {
			return ErrSeatTaken
		}
	}
	return nil
}

func (s *MemStore) CreateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Status == "" {
		student.Status = models.StatusActive
	}
	if err := s.checkStudentLocked(student); err != nil {
		return models.Student{}, err
	}
	student.CreatedAt = s.now()
	student.UpdatedAt = student.CreatedAt
	s.students[student.ID] = student
	return s.joinLocked(student), nil
}

func (s *MemStore) UpdateStudent(ctx context.Context, id string, patch StudentPatch) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	if patch.Name != nil {
		student.Name = *patch.Name
	}
	setString(&student.AdmissionNo, patch.AdmissionNo)
	setString(&student.Email, patch.Email)
	setString(&student.Phone, patch.Phone)
	setString(&student.Address, patch.Address)
	setString(&student.ProfileImageURL, patch.ProfileImageURL)
	if patch.MembershipStart != nil {
		student.MembershipStart = *patch.MembershipStart
	}
	if patch.MembershipEnd != nil {
		student.MembershipEnd = *patch.MembershipEnd
	}
	if patch.Fee != nil {
		student.Fee = null.Float64From(*patch.Fee)
	}
	if patch.Status != nil {
		student.Status = *patch.Status
	}
	student.ShiftID = patch.ShiftID
	student.SeatID = patch.SeatID
	if err := s.checkStudentLocked(student); err != nil {
		return models.Student{}, err
	}
	student.UpdatedAt = s.now()
	s.students[id] = student
	return s.joinLocked(student), nil
}

func (s *MemStore) RenewStudent(ctx context.Context, id string, start, end models.Date) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	student.MembershipStart = start
	student.MembershipEnd = end
	student.Status = models.StatusActive
	student.UpdatedAt = s.now()
	s.students[id] = student
	return s.joinLocked(student), nil
}

func (s *MemStore) DeleteStudent(ctx context.Context, id string) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	delete(s.students, id)
	return s.joinLocked(student), nil
}

func (s *MemStore) GetStudent(ctx context.Context, id string) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	return s.joinLocked(student), nil
}

func (s *MemStore) ListStudents(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(filter.Search)
	students := []models.Student{}
	for _, st := range s.students {
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.ShiftID != "" && st.ShiftID.String != filter.ShiftID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Name), search) &&
			!strings.Contains(strings.ToLower(st.Phone.String), search) {
			continue
		}
		created := models.DateOf(st.CreatedAt)
		if filter.CreatedFrom != nil && created.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && created.After(*filter.CreatedTo) {
			continue
		}
		if filter.EndOn != nil && st.MembershipEnd != *filter.EndOn {
			continue
		}
		if filter.EndOnOrBefore != nil && st.MembershipEnd.After(*filter.EndOnOrBefore) {
			continue
		}
		students = append(students, s.joinLocked(st))
	}
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if filter.Order == OrderByMembershipEnd && a.MembershipEnd != b.MembershipEnd {
			return a.MembershipEnd.Before(b.MembershipEnd)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return students, nil
}

func (s *MemStore) EmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.students {
		if id != excludeID && st.Email.Valid && st.Email.String == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) CountStudentsByStatus(ctx context.Context) (StatusCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := StatusCounts{Total: len(s.students)}
	for _, st := range s.students {
		switch st.Status {
		case models.StatusActive:
			counts.Active++
		case models.StatusExpired:
			counts.Expired++
		}
	}
	return counts, nil
}

func (s *MemStore) ExpireStudents(ctx context.Context, today models.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, st := range s.students {
		if st.Status == models.StatusActive && st.MembershipEnd.Before(today) {
			st.Status = models.StatusExpired
			st.UpdatedAt = s.now()
			s.students[id] = st
			n++
		}
	}
	return n, nil
}

func (s *MemStore) joinLocked(st models.Student) models.Student {
	st.SeatNumber = null.String{}
	st.ShiftTitle = null.String{}
	st.ShiftDescription = null.String{}
	if st.SeatID.Valid {
		if seat, ok := s.seats[st.SeatID.String]; ok {
			st.SeatNumber = null.StringFrom(seat.SeatNumber)
		}
	}
	if st.ShiftID.Valid {
		if shift, ok := s.schedules[st.ShiftID.String]; ok {
			st.ShiftTitle = null.StringFrom(shift.Title)
			st.ShiftDescription = shift.Description
		}
	}
	return st
}

func setString(dst *null.String, value *string) {
	if value != nil {
		*dst = null.StringFrom(*value)
	}
}

// --- seats ---

func (s *MemStore) ListSeats(ctx context.Context, shiftID string) ([]models.SeatView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats := make([]models.SeatView, 0, len(s.seats))
	for _, seat := range s.seats {
		view := models.SeatView{ID: seat.ID, SeatNumber: seat.SeatNumber}
		for _, st := range s.students {
			if st.SeatID.Valid && st.SeatID.String == seat.ID && (shiftID == "" || st.ShiftID.String == shiftID) {
				view.IsAssigned = true
				break
			}
		}
		seats = append(seats, view)
	}
	sort.Slice(seats, func(i, j int) bool {
		a, b := seats[i].SeatNumber, seats[j].SeatNumber
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return seats, nil
}

func (s *MemStore) SeatExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seats[id]
	return ok, nil
}

func (s *MemStore) CreateSeats(ctx context.Context, numbers []string) ([]models.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := map[string]bool{}
	for _, seat := range s.seats {
		taken[seat.SeatNumber] = true
	}
	existing := []string{}
	for _, n := range numbers {
		if taken[n] {
			existing = append(existing, n)
		}
	}
	if len(existing) > 0 {
		return nil, &SeatNumbersExistError{Numbers: inRequestOrder(numbers, existing)}
	}
	seen := map[string]bool{}
	for _, n := range numbers {
		if seen[n] {
			return nil, ErrSeatNumberExists
		}
		seen[n] = true
	}
	now := s.now()
	seats := make([]models.Seat, 0, len(numbers))
	for _, n := range numbers {
		seat := models.Seat{ID: uuid.NewString(), SeatNumber: n, CreatedAt: now}
		s.seats[seat.ID] = seat
		seats = append(seats, seat)
	}
	return seats, nil
}

func (s *MemStore) DeleteSeat(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seats[id]; !ok {
		return ErrNotFound
	}
	delete(s.seats, id)
	for sid, st := range s.students {
		if st.SeatID.Valid && st.SeatID.String == id {
			st.SeatID = null.String{}
			s.students[sid] = st
		}
	}
	return nil
}

// --- schedules ---

func (s *MemStore) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedules := make([]models.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		schedules = append(schedules, sc)
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].Title != schedules[j].Title {
			return schedules[i].Title < schedules[j].Title
		}
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})
	return schedules, nil
}

func (s *MemStore) GetSchedule(ctx context.Context, id string) (models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return models.Schedule{}, ErrNotFound
	}
	return sc, nil
}

func (s *MemStore) ScheduleExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.schedules[id]
	return ok, nil
}

func (s *MemStore) CreateSchedule(ctx context.Context, schedule models.Schedule) (models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	schedule.CreatedAt = s.now()
	s.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (s *MemStore) UpdateSchedule(ctx context.Context, schedule models.Schedule) (models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.schedules[schedule.ID]
	if !ok {
		return models.Schedule{}, ErrNotFound
	}
	schedule.CreatedAt = current.CreatedAt
	s.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (s *MemStore) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return ErrNotFound
	}
	for sid, st := range s.students {
		if st.ShiftID.Valid && st.ShiftID.String == id {
			st.ShiftID = null.String{}
			st.SeatID = null.String{}
			s.students[sid] = st
		}
	}
	delete(s.schedules, id)
	return nil
}

// --- settings, sessions, media ---

func (s *MemStore) GetSettings(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		values[k] = v
	}
	return values, nil
}

func (s *MemStore) PutSettings(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.settings[k] = v
	}
	return nil
}

func (s *MemStore) GetSession(ctx context.Context, sid string, now time.Time) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sid]
	if !ok || !session.Expire.After(now) {
		return models.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *MemStore) SaveSession(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Data = append([]byte(nil), session.Data...)
	s.sessions[session.ID] = session
	return nil
}

func (s *MemStore) DeleteSession(ctx context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

func (s *MemStore) DeleteUserSessions(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sid, session := range s.sessions {
		var payload struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		if err := json.Unmarshal(session.Data, &payload); err == nil && payload.User.ID == userID {
			delete(s.sessions, sid)
		}
	}
	return nil
}

func (s *MemStore) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for sid, session := range s.sessions {
		if !session.Expire.After(now) {
			delete(s.sessions, sid)
			n++
		}
	}
	return n, nil
}

func (s *MemStore) CreateMediaAsset(ctx context.Context, asset models.MediaAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[asset.ID] = asset
	return nil
}

func (s *MemStore) GetMediaAsset(ctx context.Context, id string) (models.MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.media[id]
	if !ok {
		return models.MediaAsset{}, ErrNotFound
	}
	return asset, nil
}

// SetCreatedAt backdates a student's creation time, for callers exercising
// date filters.
func (s *MemStore) SetCreatedAt(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.students[id]; ok {
		st.CreatedAt = at
		s.students[id] = st
	}
}

var _ Store = (*MemStore)(nil)
