package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"seatdesk/internal/models"
	"seatdesk/internal/services"
)

type SeatsResponse struct {
	Seats []models.SeatView `json:"seats"`
}

func (s *Server) ListSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := s.Seats.List(r.Context(), r.URL.Query().Get("shiftId"))
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if seats == nil {
		seats = []models.SeatView{}
	}
	WriteJSON(w, http.StatusOK, SeatsResponse{Seats: seats})
}

func (s *Server) CreateSeats(w http.ResponseWriter, r *http.Request) {
	var req services.SeatBatchInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if _, err := s.Seats.Create(r.Context(), req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, MessageResponse{Message: "Seats added successfully"})
}

func (s *Server) DeleteSeat(w http.ResponseWriter, r *http.Request) {
	if err := s.Seats.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Seat deleted successfully"})
}
