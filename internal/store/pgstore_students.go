package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"seatdesk/internal/models"
)

const studentSelect = `
SELECT st.id, st.name, st.admission_no, st.email, st.phone, st.address,
       st.membership_start, st.membership_end, st.shift_id, st.seat_id, st.status,
       st.fee::float8 AS fee, st.profile_image_url, st.created_at, st.updated_at,
       se.seat_number, sc.title AS shift_title, sc.description AS shift_description
FROM students st
LEFT JOIN seats se ON se.id = st.seat_id
LEFT JOIN schedules sc ON sc.id = st.shift_id
`

func (s *PGStore) CreateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Status == "" {
		student.Status = models.StatusActive
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO students (
  id, name, admission_no, email, phone, address, membership_start, membership_end,
  shift_id, seat_id, status, fee, profile_image_url, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
`, student.ID, student.Name, student.AdmissionNo, student.Email, student.Phone, student.Address,
		student.MembershipStart, student.MembershipEnd, student.ShiftID, student.SeatID, student.Status,
		student.Fee, student.ProfileImageURL, now)
	if err != nil {
		return models.Student{}, classify(err, "insert student")
	}
	return s.GetStudent(ctx, student.ID)
}

func (s *PGStore) UpdateStudent(ctx context.Context, id string, patch StudentPatch) (models.Student, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE students SET
  name = COALESCE($2, name),
  admission_no = COALESCE($3, admission_no),
  email = COALESCE($4, email),
  phone = COALESCE($5, phone),
  address = COALESCE($6, address),
  membership_start = COALESCE($7::date, membership_start),
  membership_end = COALESCE($8::date, membership_end),
  fee = COALESCE($9::numeric, fee),
  profile_image_url = COALESCE($10, profile_image_url),
  status = COALESCE($11, status),
  shift_id = $12,
  seat_id = $13,
  updated_at = $14
WHERE id = $1
`, id, patch.Name, patch.AdmissionNo, patch.Email, patch.Phone, patch.Address,
		optionalDate(patch.MembershipStart), optionalDate(patch.MembershipEnd), patch.Fee,
		patch.ProfileImageURL, patch.Status, patch.ShiftID, patch.SeatID, time.Now().UTC())
	if err != nil {
		return models.Student{}, classify(err, "update student")
	}
	if err := affected(res, "update student"); err != nil {
		return models.Student{}, err
	}
	return s.GetStudent(ctx, id)
}

func (s *PGStore) RenewStudent(ctx context.Context, id string, start, end models.Date) (models.Student, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE students
SET membership_start = $2, membership_end = $3, status = 'active', updated_at = $4
WHERE id = $1
`, id, start, end, time.Now().UTC())
	if err != nil {
		return models.Student{}, classify(err, "renew student")
	}
	if err := affected(res, "renew student"); err != nil {
		return models.Student{}, err
	}
	return s.GetStudent(ctx, id)
}

func (s *PGStore) DeleteStudent(ctx context.Context, id string) (models.Student, error) {
	student, err := s.GetStudent(ctx, id)
	if err != nil {
		return models.Student{}, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return models.Student{}, classify(err, "delete student")
	}
	return student, affected(res, "delete student")
}

func (s *PGStore) GetStudent(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	err := s.db.GetContext(ctx, &student, studentSelect+`WHERE st.id = $1`, id)
	return student, classify(err, "get student")
}

func (s *PGStore) ListStudents(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	conds := []string{}
	args := []interface{}{}
	add := func(format string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if filter.Status != "" {
		add("st.status = $%d", filter.Status)
	}
	if filter.ShiftID != "" {
		add("st.shift_id = $%d", filter.ShiftID)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(st.name ILIKE $%d OR st.phone ILIKE $%d)", n, n))
	}
	if filter.CreatedFrom != nil {
		add("st.created_at::date >= $%d::date", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add("st.created_at::date <= $%d::date", *filter.CreatedTo)
	}
	if filter.EndOn != nil {
		add("st.membership_end = $%d::date", *filter.EndOn)
	}
	if filter.EndOnOrBefore != nil {
		add("st.membership_end <= $%d::date", *filter.EndOnOrBefore)
	}
	query := studentSelect
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	switch filter.Order {
	case OrderByMembershipEnd:
		query += "ORDER BY st.membership_end, st.name"
	default:
		query += "ORDER BY st.name"
	}
	students := []models.Student{}
	err := s.db.SelectContext(ctx, &students, query, args...)
	return students, classify(err, "list students")
}

func (s *PGStore) EmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM students WHERE email = $1 AND ($2::text = '' OR id::text <> $2::text))
`, email, excludeID)
	return exists, classify(err, "check student email")
}

func (s *PGStore) CountStudentsByStatus(ctx context.Context) (StatusCounts, error) {
	var counts StatusCounts
	err := s.db.GetContext(ctx, &counts, `
SELECT count(*) AS total,
       count(*) FILTER (WHERE status = 'active') AS active,
       count(*) FILTER (WHERE status = 'expired') AS expired
FROM students
`)
	return counts, classify(err, "count students")
}

func (s *PGStore) ExpireStudents(ctx context.Context, today models.Date) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE students SET status = 'expired', updated_at = $2
WHERE status = 'active' AND membership_end < $1::date
`, today, time.Now().UTC())
	if err != nil {
		return 0, classify(err, "expire students")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "expire students")
}

func optionalDate(d *models.Date) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
