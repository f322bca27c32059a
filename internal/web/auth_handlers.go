package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"wardRecords/internal/auth"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("nombre_usuario"))
	password := r.PostFormValue("password")

	u, err := s.Users.GetByUsername(r.Context(), username)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "login lookup", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error logging in")
		return
	}
	if u == nil {
		plain(w, http.StatusUnauthorized, "User not found")
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.Logger.ErrorContext(r.Context(), "login password check", slog.Any("error", err))
		}
		plain(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	token, sess, err := s.Sessions.Start(r.Context(), u)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "start session", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error starting session")
		return
	}
	auth.SetCookie(w, token, sess.ExpiresAt, s.Config.Auth.CookieSecure)
	s.Logger.InfoContext(r.Context(), "user logged in", slog.String("user", u.Username), slog.String("role", string(u.Role)))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("nombre_usuario"))
	password := r.PostFormValue("password")
	code := strings.TrimSpace(r.PostFormValue("codigo_acceso"))

	role, ok, err := s.AccessCodes.RoleFor(r.Context(), code)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "access code lookup", slog.Any("error", err))
	}
	if err != nil || !ok {
		plain(w, http.StatusBadRequest, "Invalid access code")
		return
	}
	if username == "" || password == "" {
		plain(w, http.StatusBadRequest, "Error registering user")
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "hash password", slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error registering user")
		return
	}
	if _, err := s.Users.Create(r.Context(), username, hash, role); err != nil {
		s.Logger.WarnContext(r.Context(), "register user", slog.String("user", username), slog.Any("error", err))
		plain(w, http.StatusBadRequest, "Error registering user")
		return
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		if err := s.Sessions.End(r.Context(), c.Value); err != nil {
			s.Logger.ErrorContext(r.Context(), "end session", slog.Any("error", err))
		}
	}
	auth.ClearCookie(w, s.Config.Auth.CookieSecure)
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

// home greets the account behind the session. A session whose user row is
// gone is ended on the spot.
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	u, err := s.Users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "load session user", slog.Int64("user_id", sess.UserID), slog.Any("error", err))
		plain(w, http.StatusInternalServerError, "Error loading user.")
		return
	}
	if u == nil {
		s.Logger.WarnContext(r.Context(), "session user no longer exists", slog.Int64("user_id", sess.UserID))
		s.logout(w, r)
		return
	}
	s.render(w, r, "index.html", u)
}

func (s *Server) userKind(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	s.writeJSON(w, r, http.StatusOK, map[string]string{"tipo_usuario": string(sess.Role)})
}

func (s *Server) navbar(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	s.render(w, r, "navbar", sess.Role)
}
