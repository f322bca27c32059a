package auth

import (
	"log/slog"
	"net/http"
	"time"

	"wardRecords/models"
)

// CookieName is the browser cookie holding the session token.
const CookieName = "ward_session"

// LoginPath is where RequireSession sends anonymous requests.
const LoginPath = "/login"

const accessDeniedPage = "<h1>403 - Access Denied</h1>"

// LoadSession attaches the session named by the request cookie, if any, to the
// request context. It never rejects a request.
func (m *Manager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		s, err := m.Resolve(r.Context(), cookie.Value)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "resolve session", slog.Any("error", err))
		}
		if s == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RequireSession redirects to the login page when the request carries no session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 403 unless the session's role is one of roles.
// A request without a session is also denied; compose after RequireSession
// to redirect anonymous users instead.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := append([]models.Role(nil), roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := FromContext(r.Context())
			if !ok || !roleAllowed(s.Role, allowed) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(accessDeniedPage))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
