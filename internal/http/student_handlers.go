package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"seatdesk/internal/models"
	"seatdesk/internal/services"
)

type StudentsResponse struct {
	Students []models.Student `json:"students"`
}

type StudentMessageResponse struct {
	Message string         `json:"message"`
	Student models.Student `json:"student"`
}

// ListStudents accepts optional fromDate/toDate (YYYY-MM-DD) bounds on the
// creation date.
func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "fromDate")
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	to, err := queryDate(r, "toDate")
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	students, err := s.Students.List(r.Context(), from, to)
	s.writeStudents(w, r, students, err)
}

func (s *Server) ActiveStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.Students.Active(r.Context())
	s.writeStudents(w, r, students, err)
}

func (s *Server) ExpiredStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.Students.Expired(r.Context())
	s.writeStudents(w, r, students, err)
}

func (s *Server) ExpiringSoonStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.Students.ExpiringSoon(r.Context())
	s.writeStudents(w, r, students, err)
}

func (s *Server) ShiftStudents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	students, err := s.Students.ByShift(r.Context(), chi.URLParam(r, "shiftId"), query.Get("search"), query.Get("status"))
	s.writeStudents(w, r, students, err)
}

func (s *Server) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.Students.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req services.StudentInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	student, err := s.Students.Create(r.Context(), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, student)
}

func (s *Server) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req services.StudentInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	student, err := s.Students.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.Students.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, StudentMessageResponse{Message: "Student deleted successfully", Student: student})
}

func (s *Server) RenewStudent(w http.ResponseWriter, r *http.Request) {
	var req services.RenewInput
	if err := decodeJSON(r, &req); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	student, err := s.Students.Renew(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, StudentMessageResponse{Message: "Membership renewed successfully", Student: student})
}

func (s *Server) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Students.Dashboard(r.Context())
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) writeStudents(w http.ResponseWriter, r *http.Request, students []models.Student, err error) {
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	WriteJSON(w, http.StatusOK, StudentsResponse{Students: students})
}

func queryDate(r *http.Request, name string) (*models.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, services.ErrBadRequest("Invalid " + name + ", expected YYYY-MM-DD")
	}
	return &d, nil
}
