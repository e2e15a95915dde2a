package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
)

// PGStore implements Store on PostgreSQL through sqlx and the pgx driver.
type PGStore struct {
	db *sqlx.DB
}

func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// classify maps driver errors onto the package sentinels. Unique and foreign
// key violations are told apart by constraint name.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			switch pgErr.ConstraintName {
			case "unique_seat_per_shift":
				return ErrSeatTaken
			case "students_email_key":
				return ErrDuplicateEmail
			case "users_username_key":
				return ErrUsernameTaken
			case "seats_seat_number_key":
				return ErrSeatNumberExists
			}
		case "23503":
			switch pgErr.ConstraintName {
			case "students_shift_id_fkey":
				return ErrUnknownShift
			case "students_seat_id_fkey":
				return ErrUnknownSeat
			}
		case "22003":
			return ErrOutOfRange
		case "23514":
			if pgErr.ConstraintName == "seat_requires_shift" {
				return ErrSeatNeedsShift
			}
		}
	}
	return errors.Wrap(err, op)
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const userColumns = `id, username, password_hash, role, permissions, full_name, email, created_at, updated_at`

func (s *PGStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM users`)
	return count, classify(err, "count users")
}

func (s *PGStore) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM users WHERE role = 'admin'`)
	return count, classify(err, "count admins")
}

func (s *PGStore) CreateUser(ctx context.Context, user models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, role, permissions, full_name, email, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, user.ID, user.Username, user.PasswordHash, user.Role, pq.Array([]string(user.Permissions)), user.FullName, user.Email, now)
	return classify(err, "insert user")
}

func (s *PGStore) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return user, classify(err, "get user")
}

func (s *PGStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return user, classify(err, "get user by username")
}

func (s *PGStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`)
	return users, classify(err, "list users")
}

func (s *PGStore) UpdateProfile(ctx context.Context, id string, fullName, email null.String) (models.User, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE users
SET full_name = COALESCE($2, full_name),
    email = COALESCE($3, email),
    updated_at = $4
WHERE id = $1
`, id, fullName, email, time.Now().UTC())
	if err != nil {
		return models.User{}, classify(err, "update profile")
	}
	if err := affected(res, "update profile"); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}

func (s *PGStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, time.Now().UTC())
	if err != nil {
		return classify(err, "update password")
	}
	return affected(res, "update password")
}

func (s *PGStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete user")
	}
	return affected(res, "delete user")
}

func (s *PGStore) GetSettings(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return nil, classify(err, "get settings")
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (s *PGStore) PutSettings(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin settings")
	}
	defer func() { _ = tx.Rollback() }()
	now := time.Now().UTC()
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, key, value, now); err != nil {
			return classify(err, "upsert setting")
		}
	}
	return errors.Wrap(tx.Commit(), "commit settings")
}

func (s *PGStore) GetSession(ctx context.Context, sid string, now time.Time) (models.Session, error) {
	var session models.Session
	err := s.db.GetContext(ctx, &session, `SELECT sid, sess, expire FROM session WHERE sid = $1 AND expire > $2`, sid, now.UTC())
	return session, classify(err, "get session")
}

func (s *PGStore) SaveSession(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session (sid, sess, expire) VALUES ($1,$2,$3)
ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expire = EXCLUDED.expire
`, session.ID, string(session.Data), session.Expire.UTC())
	return classify(err, "save session")
}

func (s *PGStore) DeleteSession(ctx context.Context, sid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE sid = $1`, sid)
	return classify(err, "delete session")
}

// DeleteUserSessions signs a user out everywhere. Sessions keep the
// principal under the "user" key.
func (s *PGStore) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE sess->'user'->>'id' = $1`, userID)
	return classify(err, "delete user sessions")
}

func (s *PGStore) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE expire <= $1`, now.UTC())
	if err != nil {
		return 0, classify(err, "purge sessions")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "purge sessions")
}

func (s *PGStore) CreateMediaAsset(ctx context.Context, asset models.MediaAsset) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO media_assets (id, filename, content_type, size_bytes, sha256, uploaded_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, asset.ID, asset.Filename, asset.ContentType, asset.SizeBytes, asset.Sha256, asset.UploadedBy, asset.CreatedAt.UTC())
	return classify(err, "insert media asset")
}

func (s *PGStore) GetMediaAsset(ctx context.Context, id string) (models.MediaAsset, error) {
	var asset models.MediaAsset
	err := s.db.GetContext(ctx, &asset, `
SELECT id, filename, content_type, size_bytes, sha256, uploaded_by, created_at
FROM media_assets WHERE id = $1
`, id)
	return asset, classify(err, "get media asset")
}

var _ Store = (*PGStore)(nil)
