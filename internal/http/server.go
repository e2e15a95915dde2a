package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seatdesk/internal/config"
	"seatdesk/internal/logging"
	"seatdesk/internal/services"
	"seatdesk/internal/store"
)

type Server struct {
	Config    config.Config
	Store     store.Store
	Sessions  *services.SessionStore
	Students  *services.StudentService
	Seats     *services.SeatService
	Schedules *services.ScheduleService
	Users     *services.UserService
	Settings  *services.SettingsService
	Media     *services.MediaService
	Hub       *services.DashboardHub
	Registry  *prometheus.Registry
	Logger    *slog.Logger
	Started   time.Time
	metrics   *httpMetrics
}

func NewServer(st store.Store, cfg config.Config, hub *services.DashboardHub, reg *prometheus.Registry) *Server {
	clock := services.Clock{Location: cfg.Location()}
	sessionStore := services.NewSessionStore(st, cfg.SessionSecret, sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionTTLSeconds,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		Config:    cfg,
		Store:     st,
		Sessions:  sessionStore,
		Students:  services.NewStudentService(st, clock, cfg.ExpiringSoonDays),
		Seats:     services.NewSeatService(st),
		Schedules: services.NewScheduleService(st),
		Users:     services.NewUserService(st),
		Settings:  services.NewSettingsService(st),
		Media:     services.NewMediaService(st, cfg.MediaStoragePath),
		Hub:       hub,
		Registry:  reg,
		Logger:    logging.New("http"),
		Started:   time.Now().UTC(),
		metrics:   newHTTPMetrics(reg),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.RequestLogger)
	r.Use(s.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", keyCaseHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(KeyCase)
	r.Use(s.WithSession)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", s.Root)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.Login)
			auth.Get("/logout", s.Logout)
			auth.Get("/status", s.Status)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(RequireAuth)

			authed.Route("/students", func(students chi.Router) {
				students.With(RequireAdminOrStaff).Get("/", s.ListStudents)
				students.With(RequireAdminOrStaff).Get("/active", s.ActiveStudents)
				students.With(RequireAdminOrStaff).Get("/expired", s.ExpiredStudents)
				students.With(RequireAdminOrStaff).Get("/expiring-soon", s.ExpiringSoonStudents)
				students.With(RequireAdminOrStaff).Get("/shift/{shiftId}", s.ShiftStudents)
				students.With(RequirePermission(services.PermViewDashboard)).Get("/stats/dashboard", s.DashboardStats)
				students.With(RequireAdminOrStaff).Get("/{id}", s.GetStudent)
				students.With(RequirePermission(services.PermManageStudents)).Post("/", s.CreateStudent)
				students.With(RequirePermission(services.PermManageStudents)).Put("/{id}", s.UpdateStudent)
				students.With(RequirePermission(services.PermManageStudents)).Delete("/{id}", s.DeleteStudent)
				students.With(RequireAdmin).Post("/{id}/renew", s.RenewStudent)
			})

			authed.Route("/seats", func(seats chi.Router) {
				seats.With(RequireAdminOrStaff).Get("/", s.ListSeats)
				seats.With(RequirePermission(services.PermManageSeats)).Post("/", s.CreateSeats)
				seats.With(RequirePermission(services.PermManageSeats)).Delete("/{id}", s.DeleteSeat)
			})

			authed.Route("/schedules", func(schedules chi.Router) {
				schedules.With(RequireAdminOrStaff).Get("/", s.ListSchedules)
				schedules.With(RequireAdminOrStaff).Get("/with-students", s.ListSchedulesWithStudents)
				schedules.With(RequireAdminOrStaff).Get("/{id}", s.GetSchedule)
				schedules.With(RequirePermission(services.PermManageSchedules)).Post("/", s.CreateSchedule)
				schedules.With(RequirePermission(services.PermManageSchedules)).Put("/{id}", s.UpdateSchedule)
				schedules.With(RequirePermission(services.PermManageSchedules)).Delete("/{id}", s.DeleteSchedule)
			})

			authed.Route("/users", func(users chi.Router) {
				users.Get("/profile", s.Profile)
				users.Put("/profile", s.UpdateProfile)
				users.Put("/change-password", s.ChangePassword)
				users.With(RequireAdmin).Get("/", s.ListUsers)
				users.With(RequireAdmin).Post("/", s.CreateUser)
				users.With(RequireAdmin).Delete("/{id}", s.DeleteUser)
			})

			authed.Route("/settings", func(settings chi.Router) {
				settings.Use(RequireAdmin)
				settings.Get("/", s.GetSettings)
				settings.Put("/", s.PutSettings)
			})

			authed.With(RequirePermission(services.PermManageStudents)).Post("/upload-image", s.UploadImage)
			authed.With(RequireAdminOrStaff).Get("/media/{id}", s.MediaContent)
			authed.With(RequireAdmin).Get("/system/health", s.SystemHealth)
		})
	})

	r.Get("/ws/dashboard", s.DashboardSocket)
	r.With(RequireAdmin).Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Seatdesk API is running"})
}
