package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/buildinfo"
	"kakeibo/internal/cache"
	"kakeibo/internal/cli"
	apphttp "kakeibo/internal/http"
	klog "kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(klog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	ledger := services.NewLedgerService(res.Backend, cfg.Household(), res.Publisher).
		WithTimeout(cfg.StoreTimeout)
	auth := services.NewAuthService(res.Backend, cfg.MasterKey)
	if !auth.ResetEnabled() {
		logger.Info("MASTER_KEY not set, password reset from the login page is disabled")
	}

	caches := cache.NewManager()
	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL).SecureCookies(cfg.SecureCookies)
	sessions.Register(caches)
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	httpLogger := klog.New(klog.Config{
		Level:     klog.ParseLevel(cfg.LogLevel),
		Component: klog.ComponentHTTP,
		Output:    os.Stdout,
	})
	deps := apphttp.Deps{
		Ledger:             ledger,
		Auth:               auth,
		Sessions:           sessions,
		Logger:             httpLogger,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	}
	if p, ok := res.Backend.(apphttp.Pinger); ok {
		deps.Store = p
	}
	srv, err := apphttp.NewServer(":"+cfg.Port, deps)
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting kakeibo server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"version", buildinfo.Version,
			"change_events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
