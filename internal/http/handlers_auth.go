package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// requireSession sends anonymous visitors to the login page.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, core.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Get(r)
		if !sess.Authenticated {
			SeeOther("/login").Write(w)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) loginData(r *http.Request) loginPage {
	data := loginPage{
		page:         page{Title: "Sign in"},
		ResetEnabled: s.auth.ResetEnabled(),
	}
	names, err := s.auth.Usernames(r.Context())
	switch {
	case errors.Is(err, core.ErrConfiguration):
		data.ConfigError = userMessage(err)
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list usernames",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorType(err))
		data.Notice = userMessage(err)
	default:
		data.Usernames = names
	}
	return data
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Get(r).Authenticated {
		SeeOther("/").Write(w)
		return
	}
	data := s.loginData(r)
	status := http.StatusOK
	if data.ConfigError != "" {
		status = http.StatusServiceUnavailable
	}
	s.render(r.Context(), w, status, "login.html", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	sess, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.failedLogins, 1)
		data := s.loginData(r)
		data.Selected = username
		if data.ConfigError == "" {
			data.Notice = userMessage(err)
		}
		if !errors.Is(err, core.ErrInvalidCredentials) {
			log.FromContext(ctx).ErrorContext(ctx, "Login failed",
				log.FieldOperation, log.OpLogin,
				log.FieldUser, username,
				log.FieldError, err,
				log.FieldErrorType, log.ErrorType(err))
		}
		s.render(ctx, w, errorStatus(err), "login.html", data)
		return
	}

	if err := s.sessions.Rotate(w, r, sess); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to create session", log.FieldError, err)
		InternalServerError("Could not start a session.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.logins, 1)
	SeeOther("/").Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(w, r)
	SeeOther("/login").Write(w)
}

// handleReset sets a user's password with the master key, from the login page.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	username := sanitizeInput(r.PostForm.Get("username"))

	err := s.auth.ResetPassword(ctx, username, r.PostForm.Get("master_key"), r.PostForm.Get("new_password"))
	data := s.loginData(r)
	data.Selected = username
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Password reset failed",
			log.FieldOperation, log.OpPassword,
			log.FieldUser, username,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorType(err))
		data.Notice = userMessage(err)
		s.render(ctx, w, errorStatus(err), "login.html", data)
		return
	}
	atomic.AddInt64(&s.appMetrics.passwordResets, 1)
	data.Flash = "Password reset for " + username + ". You can sign in now."
	s.render(ctx, w, http.StatusOK, "login.html", data)
}

func (s *Server) handlePasswordPage(w http.ResponseWriter, r *http.Request, sess core.Session) {
	data := passwordPage{page: page{Title: "Change password", User: sess.CurrentUser, Nav: "password"}}
	if changed, _ := strconv.ParseBool(r.URL.Query().Get("changed")); changed {
		data.Flash = "Password changed."
	}
	s.render(r.Context(), w, http.StatusOK, "password.html", data)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	err := s.auth.ChangePassword(ctx, sess, r.PostForm.Get("new_password"), r.PostForm.Get("confirm_password"))
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Password change failed",
			log.FieldOperation, log.OpPassword,
			log.FieldUser, sess.CurrentUser,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorType(err))
		data := passwordPage{page: page{Title: "Change password", User: sess.CurrentUser, Nav: "password", Notice: userMessage(err)}}
		s.render(ctx, w, errorStatus(err), "password.html", data)
		return
	}
	SeeOther("/password?changed=1").Write(w)
}

func (s *Server) onLoginLimited(w http.ResponseWriter, r *http.Request) {
	retry := s.loginLimiter.RetryAfter(s.securityDetector.ExtractClientIP(r))
	w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
	data := loginPage{page: page{Title: "Sign in", Notice: "Too many attempts. Please wait a minute and try again."}}
	s.render(r.Context(), w, http.StatusTooManyRequests, "login.html", data)
}
