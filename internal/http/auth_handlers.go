package httpapi

import (
	"net/http"

	"seatdesk/internal/services"
)

type LoginResponse struct {
	Message string              `json:"message"`
	User    *services.Principal `json:"user"`
}

type StatusResponse struct {
	IsAuthenticated bool                `json:"is_authenticated"`
	User            *services.Principal `json:"user,omitempty"`
}

// Login checks credentials and binds the principal to a fresh session id.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	user, err := s.Users.Authenticate(r.Context(), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	session, err := s.Sessions.Get(r, s.Config.SessionName)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if err := s.Sessions.Regenerate(r, session); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	principal := services.PrincipalFor(user)
	services.SetSessionPrincipal(session, principal)
	if err := session.Save(r, w); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	s.Logger.InfoContext(r.Context(), "login", "user_id", user.ID, "role", user.Role)
	WriteJSON(w, http.StatusOK, LoginResponse{Message: "Login successful", User: &principal})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := s.Sessions.Get(r, s.Config.SessionName)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.Logger.ErrorContext(r.Context(), "logout failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Server error during logout")
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	p := CurrentPrincipal(r)
	WriteJSON(w, http.StatusOK, StatusResponse{IsAuthenticated: p != nil, User: p})
}
