package http

import (
	"net/http"
	"sync/atomic"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// handleDashboard shows total assets, per-account shares and the daily
// total chart for the selected display scope.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess core.Session) {
	ctx := r.Context()
	rawScope := r.URL.Query().Get("scope")

	view, err := s.ledger.View(ctx, sess, rawScope)
	data := dashboardPage{
		page:      page{Title: "Dashboard", User: sess.CurrentUser, Nav: "dashboard"},
		Scopes:    scopeOptions(view),
		Dashboard: view.Dashboard,
		Chart:     buildChart(view.Dashboard.Daily),
	}
	if err != nil {
		atomic.AddInt64(&s.appMetrics.storageErrors, 1)
		data.Notice = userMessage(err)
	}

	log.FromContext(ctx).DebugContext(ctx, "Dashboard rendered",
		log.FieldUser, sess.CurrentUser,
		log.FieldScope, view.Scope.Value(),
		log.FieldRows, view.Dashboard.Rows)
	s.render(ctx, w, http.StatusOK, "dashboard.html", data)
}
