package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"seatdesk/internal/services"
)

type UsersResponse struct {
	Users []UserDTO `json:"users"`
}

type UserMessageResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Users.List(r.Context())
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, UsersResponse{Users: buildUserDTOs(users)})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.NewUserInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	user, err := s.Users.Create(r.Context(), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	s.Logger.InfoContext(r.Context(), "user created", "user_id", user.ID, "role", user.Role, "by", CurrentUserID(r))
	WriteJSON(w, http.StatusCreated, UserMessageResponse{Message: "User created successfully", User: buildUserDTO(user)})
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Users.Delete(r.Context(), CurrentUserID(r), id); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	s.Logger.InfoContext(r.Context(), "user deleted", "user_id", id, "by", CurrentUserID(r))
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	values, err := s.Settings.Get(r.Context())
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, values)
}

func (s *Server) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req services.SettingsInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	values, err := s.Settings.Put(r.Context(), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, values)
}
