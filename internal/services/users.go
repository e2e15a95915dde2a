package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

const msgUserNotFound = "User not found"

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProfileInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type PasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type NewUserInput struct {
	Username    string    `json:"username"`
	Password    string    `json:"password"`
	Role        string    `json:"role"`
	Permissions *[]string `json:"permissions" validate:"omitempty,dive,permission"`
}

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Authenticate checks credentials. Unknown users and wrong passwords are
// reported the same way.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return models.User{}, ErrBadRequest("Username and password are required")
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUnauthorized("Invalid credentials")
	}
	if err != nil {
		return models.User{}, err
	}
	if !VerifyPassword(in.Password, user.PasswordHash) {
		return models.User{}, ErrUnauthorized("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrNotFound(msgUserNotFound)
	}
	return user, err
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (models.User, error) {
	in.FullName = trimmed(in.FullName)
	in.Email = trimmed(in.Email)
	if in.Email != nil && *in.Email == "" {
		in.Email = nil
	}
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	user, err := s.store.UpdateProfile(ctx, id, null.StringFromPtr(in.FullName), null.StringFromPtr(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrNotFound(msgUserNotFound)
	}
	return user, err
}

func (s *UserService) ChangePassword(ctx context.Context, id string, in PasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return ErrBadRequest("Current and new password are required")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !VerifyPassword(in.CurrentPassword, user.PasswordHash) {
		return ErrUnauthorized("Current password is incorrect")
	}
	return s.SetPassword(ctx, id, in.NewPassword)
}

// SetPassword replaces a password without checking the old one.
func (s *UserService) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < minPasswordLength {
		return ErrBadRequest("New password must be at least 4 characters in length")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	err = s.store.UpdatePassword(ctx, id, hash)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(msgUserNotFound)
	}
	return err
}

// Create adds an account. Staff without an explicit permission list get the
// default set; admins carry none.
func (s *UserService) Create(ctx context.Context, in NewUserInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return models.User{}, ErrBadRequest("Username and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, ErrBadRequest("Password must be at least 4 characters in length")
	}
	if in.Role == "" {
		in.Role = models.RoleStaff
	}
	if in.Role != models.RoleAdmin && in.Role != models.RoleStaff {
		return models.User{}, ErrBadRequest("Role must be admin or staff")
	}
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	permissions := []string{}
	if in.Role == models.RoleStaff {
		if in.Permissions != nil {
			permissions = NewPermissionSet(*in.Permissions...).Strings()
		} else {
			for _, p := range DefaultStaffPermissions {
				permissions = append(permissions, string(p))
			}
		}
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{Username: in.Username, PasswordHash: hash, Role: in.Role, Permissions: permissions}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return models.User{}, ErrBadRequest("Username already exists")
		}
		return models.User{}, err
	}
	return s.store.GetUserByUsername(ctx, in.Username)
}

// Delete removes an account and signs it out everywhere. Admins cannot
// remove themselves or the last admin.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if !validID(id) {
		return ErrNotFound(msgUserNotFound)
	}
	if actorID == id {
		return ErrBadRequest("You cannot delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		admins, err := s.store.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrBadRequest("Cannot delete the last admin")
		}
	}
	if err := s.store.DeleteUserSessions(ctx, id); err != nil {
		return err
	}
	err = s.store.DeleteUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(msgUserNotFound)
	}
	return err
}

// EnsureDefaultAdmin creates the bootstrap admin when there are no users.
// It reports whether an account was created.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	err = s.store.CreateUser(ctx, models.User{Username: username, PasswordHash: hash, Role: models.RoleAdmin, Permissions: []string{}})
	if errors.Is(err, store.ErrUsernameTaken) {
		return false, nil
	}
	return err == nil, err
}
