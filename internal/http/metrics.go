package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"seatdesk/internal/services"
)

type HealthResponse struct {
	Status string                `json:"status"`
	Health services.HealthSample `json:"health"`
}

func (s *Server) SystemHealth(w http.ResponseWriter, r *http.Request) {
	sample := services.CaptureHealth(r.Context(), s.Store, s.Config.MediaStoragePath, s.Started)
	if !sample.Healthy() {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Health: sample})
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Health: sample})
}

// DashboardSocket streams dashboard stats to a signed-in user holding
// view_dashboard. The session cookie is checked before the upgrade.
func (s *Server) DashboardSocket(w http.ResponseWriter, r *http.Request) {
	if err := services.Authorize(CurrentPrincipal(r), services.PermViewDashboard); err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	if s.Hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "Dashboard stream unavailable")
		return
	}
	stats, err := s.Students.Dashboard(r.Context())
	if err != nil {
		s.mapServiceError(w, r, err)
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: s.allowOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := s.Hub.Join(conn, services.DashboardUpdate{CapturedAt: time.Now().UTC(), Stats: stats}); err != nil {
		_ = conn.Close()
		return
	}
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// allowOrigin accepts same-origin requests and the configured CORS origins.
func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
