package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/log"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
	appweb "kakeibo/web"
)

// Deps are the collaborators the web surface needs.
// Pinger is implemented by stores that can answer a cheap liveness query.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Ledger   *services.LedgerService
	Auth     *services.AuthService
	Sessions *session.Store
	Logger   *log.Logger

	// Store is checked by /readyz when set.
	Store Pinger

	// LoginRatePerMinute throttles login and reset attempts per client IP.
	LoginRatePerMinute int
}

type Server struct {
	http.Server
	templates *template.Template

	ledger   *services.LedgerService
	auth     *services.AuthService
	sessions *session.Store
	store    Pinger
	logger   *log.Logger

	loginLimiter     *ratelimit.Limiter
	writeLimiter     *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime         time.Time
	registrations  int64
	gridSaves      int64
	logins         int64
	failedLogins   int64
	passwordResets int64
	storageErrors  int64
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		templates:        t,
		ledger:           deps.Ledger,
		auth:             deps.Auth,
		sessions:         deps.Sessions,
		store:            deps.Store,
		logger:           logger,
		loginLimiter:     ratelimit.NewLimiter(ratelimit.PerMinute(deps.LoginRatePerMinute)),
		writeLimiter:     ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	loginLimit := s.loginLimiter.Middleware(detector.ExtractClientIP, s.onLoginLimited)
	writeLimit := s.writeLimiter.Middleware(detector.ExtractClientIP, nil)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", loginLimit(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /login/reset", loginLimit(http.HandlerFunc(s.handleReset)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireSession(s.handleDashboard))
	mux.HandleFunc("GET /records", s.requireSession(s.handleRecords))
	mux.Handle("POST /records", writeLimit(s.requireSession(s.handleRegister)))
	mux.Handle("POST /records/edit", writeLimit(s.requireSession(s.handleSaveEdits)))
	mux.HandleFunc("GET /password", s.requireSession(s.handlePasswordPage))
	mux.Handle("POST /password", writeLimit(s.requireSession(s.handleChangePassword)))

	var handler http.Handler = mux
	handler = log.Middleware(logger, trace.GetRequestID)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the limiters and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		s.writeLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
