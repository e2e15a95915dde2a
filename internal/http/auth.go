package httpapi

import (
	"context"
	"net/http"

	"seatdesk/internal/services"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithSession loads the signed-in principal, if any, into the request
// context. It never rejects a request.
func (s *Server) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Sessions.Get(r, s.Config.SessionName)
		if err != nil {
			s.Logger.WarnContext(r.Context(), "session load failed", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if p, ok := services.SessionPrincipal(session); ok {
			r = r.WithContext(context.WithValue(r.Context(), ctxPrincipal, p))
		}
		next.ServeHTTP(w, r)
	})
}

func CurrentPrincipal(r *http.Request) *services.Principal {
	if p, ok := r.Context().Value(ctxPrincipal).(*services.Principal); ok {
		return p
	}
	return nil
}

func CurrentUserID(r *http.Request) string {
	if p := CurrentPrincipal(r); p != nil {
		return p.UserID
	}
	return ""
}

func requireWith(check func(*services.Principal) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(CurrentPrincipal(r)); err != nil {
				svcErr, _ := services.AsServiceError(err)
				WriteError(w, svcErr.Status, svcErr.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth only needs a signed-in principal of any role.
func RequireAuth(next http.Handler) http.Handler {
	return requireWith(func(p *services.Principal) error {
		if p == nil {
			return services.ErrUnauthorized("Unauthorized")
		}
		return nil
	})(next)
}

func RequirePermission(perm services.Permission) func(http.Handler) http.Handler {
	return requireWith(func(p *services.Principal) error {
		return services.Authorize(p, perm)
	})
}

func RequireAdminOrStaff(next http.Handler) http.Handler {
	return requireWith(services.AuthorizeAdminOrStaff)(next)
}

func RequireAdmin(next http.Handler) http.Handler {
	return requireWith(services.AuthorizeAdmin)(next)
}
