package http

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

func (s *Server) recordsData(ctx context.Context, sess core.Session) recordsPage {
	view, err := s.ledger.View(ctx, sess, "")
	data := recordsPage{
		page:         page{Title: "Records", User: sess.CurrentUser, Nav: "records"},
		Kinds:        core.AccountKinds,
		Owners:       view.Allowed,
		AccountNames: view.AccountNames,
		Form:         TransactionForm{Date: core.Today().String()},
		Rows:         gridFromEdits(view.EditRows),
	}
	if err != nil {
		atomic.AddInt64(&s.appMetrics.storageErrors, 1)
		data.Notice = userMessage(err)
	}
	if len(view.Allowed) > 0 {
		data.Form.Owner = string(view.Allowed[0])
	}
	return data
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request, sess core.Session) {
	data := s.recordsData(r.Context(), sess)
	switch {
	case r.URL.Query().Has("registered"):
		data.Flash = "Balance registered."
	case r.URL.Query().Has("saved"):
		data.Flash = "Changes saved."
	}
	s.render(r.Context(), w, http.StatusOK, "records.html", data)
}

// handleRegister appends one balance snapshot.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	form := ReadTransactionForm(r.PostForm)

	t, err := form.Transaction()
	if err == nil {
		err = s.ledger.Register(ctx, sess, t)
	}
	if err != nil {
		s.logActionError(ctx, log.OpRegister, sess, err)
		data := s.recordsData(ctx, sess)
		data.Form = form
		data.Notice = userMessage(err)
		s.render(ctx, w, errorStatus(err), "records.html", data)
		return
	}

	atomic.AddInt64(&s.appMetrics.registrations, 1)
	SeeOther("/records?registered=1").Write(w)
}

// handleSaveEdits replaces the user's visible rows with the submitted grid.
func (s *Server) handleSaveEdits(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	edited, err := ParseEditGrid(r.PostForm)
	if err == nil {
		err = s.ledger.SaveEdits(ctx, sess, edited)
	}
	if err != nil {
		s.logActionError(ctx, log.OpEdit, sess, err)
		s.renderRejectedGrid(ctx, w, sess, r.PostForm, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.gridSaves, 1)
	SeeOther("/records?saved=1").Write(w)
}

// renderRejectedGrid keeps the user's unsaved grid on screen with the error.
func (s *Server) renderRejectedGrid(ctx context.Context, w http.ResponseWriter, sess core.Session, form url.Values, err error) {
	data := s.recordsData(ctx, sess)
	data.Rows = gridFromForm(form)
	data.Notice = userMessage(err)
	s.render(ctx, w, errorStatus(err), "records.html", data)
}

func (s *Server) logActionError(ctx context.Context, op string, sess core.Session, err error) {
	logger := log.FromContext(ctx)
	args := []any{
		log.FieldOperation, op,
		log.FieldUser, sess.CurrentUser,
		log.FieldError, err,
		log.FieldErrorType, log.ErrorType(err),
	}
	if core.IsValidation(err) {
		logger.WarnContext(ctx, "Rejected ledger change", args...)
		return
	}
	atomic.AddInt64(&s.appMetrics.storageErrors, 1)
	logger.ErrorContext(ctx, "Failed to save ledger change", args...)
}
