package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
)

func newUsersCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and maintain the user_config table",
	}
	cmd.AddCommand(
		newUsersListCommand(open),
		newUsersAddCommand(open),
		newUsersResetCommand(open),
	)
	return cmd
}

func newUsersListCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List usernames in table order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *Env) error {
				names, err := env.Auth.Usernames(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
}

func newUsersAddCommand(open Opener) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add USER",
		Short: "Add a user, or overwrite an existing user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New("username must not be empty")
			}
			if password == "" {
				return core.ErrEmptyPassword
			}
			return withEnv(cmd, open, func(env *Env) error {
				seeder, ok := env.Credentials.(sheets.CredentialSeeder)
				if !ok {
					return errors.New("this backend cannot add users; add a row to user_config in the spreadsheet instead")
				}
				if err := seeder.AddCredential(cmd.Context(), core.Credential{Username: username, Secret: password}); err != nil {
					return fmt.Errorf("adding %s: %w", username, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s saved\n", username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password for the user (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersResetCommand(open Opener) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset USER",
		Short: "Set an existing user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(env *Env) error {
				if err := env.Auth.SetPassword(cmd.Context(), args[0], password); err != nil {
					return fmt.Errorf("resetting %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password for %s updated\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
