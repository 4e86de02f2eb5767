package main

import (
	"context"
	"fmt"
	"os"

	"kakeibo/internal/backend"
	"kakeibo/internal/cli"
	"kakeibo/internal/commands"
	"kakeibo/internal/config"
	klog "kakeibo/internal/log"
	"kakeibo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	// stdout carries CSV exports, so logs go to stderr.
	logger := klog.New(klog.Config{
		Level:     klog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: klog.ComponentCLI,
		Output:    os.Stderr,
	})
	klog.SetDefault(logger)

	open := func(ctx context.Context) (*commands.Env, error) {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return nil, err
		}
		res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", cfg.DataBackend, err)
		}
		return &commands.Env{
			Ledger:      services.NewLedgerService(res.Backend, cfg.Household(), res.Publisher).WithTimeout(cfg.StoreTimeout),
			Auth:        services.NewAuthService(res.Backend, cfg.MasterKey),
			Credentials: res.Backend,
			Close:       res.Cleanup,
		}, nil
	}

	if err := commands.NewRootCommand(open).Execute(); err != nil {
		os.Exit(1)
	}
}
