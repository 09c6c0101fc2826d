package session

import (
	"net/http"
	"strings"

	"github.com/absmach/cvdash/pkg/api"
)

const bearerPrefix = "Bearer "

// Token extracts the bearer token from the request.
func Token(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
}

// Guard rejects requests without a live session of the given role. The
// session is attached to the request context.
func Guard(m *Manager, role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Get(r.Context(), Token(r))
			if err != nil {
				api.EncodeError(r.Context(), err, w)

				return
			}
			if err := s.Authorize(role, ""); err != nil {
				api.EncodeError(r.Context(), err, w)

				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}

// Authenticated attaches any live session without checking its role.
func Authenticated(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Get(r.Context(), Token(r))
			if err != nil {
				api.EncodeError(r.Context(), err, w)

				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}

