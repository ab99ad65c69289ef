package http

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"splitdash/internal/authsvc"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_ = NewHTMXResponse().
			Status(http.StatusBadRequest).
			ErrorNotification("Invalid request format").
			Write(w)
		return
	}

	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	if _, err := mail.ParseAddress(email); err != nil || password == "" {
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			ErrorNotification("Enter your email and password").
			Write(w)
		return
	}

	if err := s.sessions.SignIn(r.Context(), email, password); err != nil {
		if authsvc.IsAuthError(err) {
			_ = NewHTMXResponse().
				Status(http.StatusUnauthorized).
				ErrorNotification("Invalid email or password").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Sign-in failed", "error", err)
		_ = NewHTMXResponse().
			Status(http.StatusBadGateway).
			ErrorNotification("Sign-in is unavailable right now").
			Write(w)
		return
	}

	_ = NewHTMXResponse().
		TriggerSessionChanged().
		Header("HX-Refresh", "true").
		SuccessNotification("Signed in").
		Write(w)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_ = NewHTMXResponse().
			Status(http.StatusBadRequest).
			ErrorNotification("Invalid request format").
			Write(w)
		return
	}

	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	name := sanitizeInput(r.Form.Get("name"))
	if _, err := mail.ParseAddress(email); err != nil || password == "" || name == "" {
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			ErrorNotification("Name, email and password are all required").
			Write(w)
		return
	}
	if len(password) < 8 {
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			ErrorNotification("Password must be at least 8 characters").
			Write(w)
		return
	}

	if err := s.sessions.SignUp(r.Context(), email, password, name); err != nil {
		if authsvc.IsAuthError(err) {
			_ = NewHTMXResponse().
				Status(http.StatusConflict).
				ErrorNotification("An account with this email already exists").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Sign-up failed", "error", err)
		_ = NewHTMXResponse().
			Status(http.StatusBadGateway).
			ErrorNotification("Sign-up is unavailable right now").
			Write(w)
		return
	}

	_ = NewHTMXResponse().
		TriggerSessionChanged().
		Header("HX-Refresh", "true").
		SuccessNotification("Welcome, " + name).
		Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context()); err != nil {
		// Local session is already cleared; the remote failure is not
		// the user's problem.
		slog.WarnContext(r.Context(), "Remote sign-out failed", "error", err)
	}

	_ = NewHTMXResponse().
		TriggerSessionChanged().
		Header("HX-Refresh", "true").
		SuccessNotification("Signed out").
		Write(w)
}
