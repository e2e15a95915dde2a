package httpapi

import (
	"time"

	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
)

type UserDTO struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Role        string      `json:"role"`
	Permissions []string    `json:"permissions"`
	FullName    null.String `json:"full_name"`
	Email       null.String `json:"email"`
	CreatedAt   time.Time   `json:"created_at"`
}

func buildUserDTO(user models.User) UserDTO {
	permissions := []string{}
	if user.Role == models.RoleStaff {
		permissions = append(permissions, user.Permissions...)
	}
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Permissions: permissions,
		FullName:    user.FullName,
		Email:       user.Email,
		CreatedAt:   user.CreatedAt,
	}
}

func buildUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, 0, len(users))
	for _, user := range users {
		items = append(items, buildUserDTO(user))
	}
	return items
}
