package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"seatdesk/internal/models"
	"seatdesk/internal/services"
)

type SchedulesResponse struct {
	Schedules []models.Schedule `json:"schedules"`
}

type SchedulesWithStudentsResponse struct {
	Schedules []services.ScheduleWithStudents `json:"schedules"`
}

func (s *Server) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.Schedules.List(r.Context())
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	WriteJSON(w, http.StatusOK, SchedulesResponse{Schedules: schedules})
}

func (s *Server) ListSchedulesWithStudents(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.Schedules.ListWithStudents(r.Context())
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, SchedulesWithStudentsResponse{Schedules: schedules})
}

func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.Schedules.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, schedule)
}

func (s *Server) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req services.ScheduleInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	schedule, err := s.Schedules.Create(r.Context(), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, schedule)
}

func (s *Server) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req services.ScheduleInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	schedule, err := s.Schedules.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, schedule)
}

func (s *Server) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.Schedules.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Schedule deleted successfully"})
}
