package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks that the credential table can be read and, when the
// store supports it, that the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if names, err := s.auth.Usernames(ctx); err != nil {
		checks["credential_store"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["credential_store"] = map[string]any{"status": "ok", "users": len(names)}
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["ledger_store"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["ledger_store"] = "ok"
		}
	}

	checks["sessions"] = map[string]any{"active": s.sessions.Size(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.loginLimiter.ActiveClients(), "status": "ok"}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	loginLimit := s.loginLimiter.GetMetrics()
	writeLimit := s.writeLimiter.GetMetrics()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Mean response time", traceMetrics.AverageResponseTime)
	metric("ledger_registrations_total", "counter", "Balance snapshots registered", atomic.LoadInt64(&s.appMetrics.registrations))
	metric("ledger_grid_saves_total", "counter", "Edit grid saves", atomic.LoadInt64(&s.appMetrics.gridSaves))
	metric("ledger_storage_errors_total", "counter", "Failed ledger loads and saves", atomic.LoadInt64(&s.appMetrics.storageErrors))
	metric("logins_total", "counter", "Successful logins", atomic.LoadInt64(&s.appMetrics.logins))
	metric("login_failures_total", "counter", "Rejected logins", atomic.LoadInt64(&s.appMetrics.failedLogins))
	metric("password_resets_total", "counter", "Master key password resets", atomic.LoadInt64(&s.appMetrics.passwordResets))
	metric("sessions_active", "gauge", "Live sessions", s.sessions.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by a rate limiter\n# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total{limiter=\"login\"} %d\n", loginLimit.TotalHits)
	fmt.Fprintf(w, "rate_limit_hits_total{limiter=\"write\"} %d\n\n", writeLimit.TotalHits)

	metric("suspicious_requests_total", "counter", "Requests matching a probe pattern", securityMetrics.SuspiciousRequests)
	metric("blocked_requests_total", "counter", "Requests rejected by method", securityMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
