package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"seatdesk/internal/services"
)

type UserResponse struct {
	User UserDTO `json:"user"`
}

type ImageResponse struct {
	ImageURL string `json:"image_url"`
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.Get(r.Context(), CurrentUserID(r))
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, UserResponse{User: buildUserDTO(user)})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	user, err := s.Users.UpdateProfile(r.Context(), CurrentUserID(r), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, UserResponse{User: buildUserDTO(user)})
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req services.PasswordInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if err := s.Users.ChangePassword(r.Context(), CurrentUserID(r), req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// UploadImage stores a multipart "image" field and returns its URL.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.Config.MaxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	if header.Size > s.Config.MaxUploadBytes {
		WriteError(w, http.StatusBadRequest, "File is too large")
		return
	}
	_, url, err := s.Media.SaveImage(r.Context(), CurrentUserID(r), header.Filename, file)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ImageResponse{ImageURL: url})
}

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	asset, file, err := s.Media.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	defer file.Close()
	if asset.Filename.Valid {
		w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(asset.Filename.String))
	}
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("ETag", strconv.Quote(asset.Sha256))
	http.ServeContent(w, r, "", asset.CreatedAt, io.ReadSeeker(file))
}
