package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatdesk/internal/models"
	"seatdesk/internal/store"
)

func newUserService(t *testing.T) (*UserService, models.User) {
	t.Helper()
	svc := NewUserService(store.NewMemStore())
	created, err := svc.EnsureDefaultAdmin(context.Background(), "admin", "admin")
	require.NoError(t, err)
	require.True(t, created)
	admin, err := svc.Authenticate(context.Background(), LoginInput{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	return svc, admin
}

func TestUserService_EnsureDefaultAdminOnce(t *testing.T) {
	svc, _ := newUserService(t)
	created, err := svc.EnsureDefaultAdmin(context.Background(), "other", "secret")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUserService_Authenticate(t *testing.T) {
	svc, admin := newUserService(t)
	ctx := context.Background()
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, err := svc.Authenticate(ctx, LoginInput{Username: "admin"})
	requireStatus(t, err, http.StatusBadRequest, "Username and password are required")
	_, err = svc.Authenticate(ctx, LoginInput{Username: "admin", Password: "wrong"})
	requireStatus(t, err, http.StatusUnauthorized, "Invalid credentials")
	_, err = svc.Authenticate(ctx, LoginInput{Username: "ghost", Password: "admin"})
	requireStatus(t, err, http.StatusUnauthorized, "Invalid credentials")
}

func TestUserService_CreatePermissions(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	staff, err := svc.Create(ctx, NewUserInput{Username: "desk", Password: "pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)
	assert.ElementsMatch(t, []string{"view_dashboard", "manage_students", "manage_schedules"}, []string(staff.Permissions))

	seats, err := svc.Create(ctx, NewUserInput{Username: "seats", Password: "pass", Role: "staff",
		Permissions: &[]string{"manage_seats"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"manage_seats"}, []string(seats.Permissions))

	admin, err := svc.Create(ctx, NewUserInput{Username: "boss", Password: "pass", Role: "admin",
		Permissions: &[]string{"manage_seats"}})
	require.NoError(t, err)
	assert.Empty(t, admin.Permissions)

	_, err = svc.Create(ctx, NewUserInput{Username: "x", Password: "pass", Permissions: &[]string{"fly"}})
	requireStatus(t, err, http.StatusBadRequest, "Unknown permission: fly")

	_, err = svc.Create(ctx, NewUserInput{Username: "desk", Password: "pass"})
	requireStatus(t, err, http.StatusBadRequest, "Username already exists")

	_, err = svc.Create(ctx, NewUserInput{Username: "y", Password: "pass", Role: "owner"})
	requireStatus(t, err, http.StatusBadRequest, "Role must be admin or staff")
}

func TestUserService_Delete(t *testing.T) {
	svc, admin := newUserService(t)
	ctx := context.Background()

	requireStatus(t, svc.Delete(ctx, admin.ID, admin.ID), http.StatusBadRequest, "You cannot delete your own account")

	other, err := svc.Create(ctx, NewUserInput{Username: "boss", Password: "pass", Role: "admin"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, admin.ID, other.ID))

	staff, err := svc.Create(ctx, NewUserInput{Username: "desk", Password: "pass"})
	require.NoError(t, err)
	requireStatus(t, svc.Delete(ctx, staff.ID, admin.ID), http.StatusBadRequest, "Cannot delete the last admin")

	requireStatus(t, svc.Delete(ctx, admin.ID, "garbage"), http.StatusNotFound, msgUserNotFound)
}

func TestUserService_ProfileAndPassword(t *testing.T) {
	svc, admin := newUserService(t)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, admin.ID, ProfileInput{FullName: strPtr(" Ada Admin "), Email: strPtr("ada@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Ada Admin", updated.FullName.String)
	assert.Equal(t, "ada@example.com", updated.Email.String)

	err = svc.ChangePassword(ctx, admin.ID, PasswordInput{CurrentPassword: "nope", NewPassword: "fresh"})
	requireStatus(t, err, http.StatusUnauthorized, "Current password is incorrect")

	err = svc.ChangePassword(ctx, admin.ID, PasswordInput{CurrentPassword: "admin", NewPassword: "abc"})
	requireStatus(t, err, http.StatusBadRequest, "New password must be at least 4 characters in length")

	require.NoError(t, svc.ChangePassword(ctx, admin.ID, PasswordInput{CurrentPassword: "admin", NewPassword: "fresh"}))
	_, err = svc.Authenticate(ctx, LoginInput{Username: "admin", Password: "fresh"})
	assert.NoError(t, err)
}
