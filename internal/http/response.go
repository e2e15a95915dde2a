package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"seatdesk/internal/services"
)

const msgServerError = "Server error"

type ErrorResponse struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON encodes payload before committing the status, so a value that
// cannot be encoded becomes a 500 instead of an empty success.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode response", "err", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Message: msgServerError})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return services.ErrBadRequest("Invalid payload")
}

// mapServiceError writes the response for err. Domain errors keep their
// status and message; anything else is logged and reported as a 500.
func (s *Server) mapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if svcErr, ok := services.AsServiceError(err); ok {
		WriteError(w, svcErr.Status, svcErr.Message)
		return
	}
	s.Logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("err", err))
	WriteError(w, http.StatusInternalServerError, msgServerError)
}
