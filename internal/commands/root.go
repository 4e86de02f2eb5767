// Package commands implements the kakeibo-admin command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kakeibo/internal/buildinfo"
	"kakeibo/internal/services"
	"kakeibo/internal/sheets"
)

// Env is an opened store with the services built over it.
type Env struct {
	Ledger      *services.LedgerService
	Auth        *services.AuthService
	Credentials sheets.CredentialStore
	Close       func() error
}

// Opener connects to the configured backend. Commands call it lazily so
// that version and help work without configuration.
type Opener func(ctx context.Context) (*Env, error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "kakeibo-admin",
		Short:   "Maintenance tasks for the kakeibo ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newExportCommand(open),
		newImportCommand(open),
		newUsersCommand(open),
		newVersionCommand(),
	)
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "kakeibo-admin", buildinfo.String())
			return err
		},
	}
}

// withEnv opens the store for the duration of fn.
func withEnv(cmd *cobra.Command, open Opener, fn func(*Env) error) (err error) {
	env, err := open(cmd.Context())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	if env.Close != nil {
		defer func() {
			if cerr := env.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing store: %w", cerr)
			}
		}()
	}
	return fn(env)
}
