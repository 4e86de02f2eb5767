package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kakeibo/internal/sheets/rows"
)

const stdio = "-"

func newExportCommand(open Opener) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(env *Env) error {
				ledger, err := env.Ledger.Export(cmd.Context())
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if out != stdio {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("creating %s: %w", out, err)
					}
					defer f.Close()
					w = f
				}
				if err := rows.WriteLedgerCSV(w, ledger); err != nil {
					return fmt.Errorf("writing csv: %w", err)
				}
				if out != stdio {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rows to %s\n", len(ledger), out)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", stdio, `output file, "-" for stdout`)
	return cmd
}

func newImportCommand(open Opener) *cobra.Command {
	var (
		in      string
		replace bool
		actor   string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Append CSV rows to the ledger, or replace it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if in != stdio {
				f, err := os.Open(in)
				if err != nil {
					return fmt.Errorf("opening %s: %w", in, err)
				}
				defer f.Close()
				r = f
			}
			imported, err := rows.ReadLedgerCSV(r)
			if err != nil {
				return fmt.Errorf("reading csv: %w", err)
			}

			return withEnv(cmd, open, func(env *Env) error {
				total, err := env.Ledger.Import(cmd.Context(), imported, replace, actor)
				if err != nil {
					return err
				}
				mode := "appended"
				if replace {
					mode = "replaced ledger with"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Import %s %d rows, ledger now has %d rows\n", mode, len(imported), total)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", `CSV file with the ledger header, "-" for stdin (required)`)
	_ = cmd.MarkFlagRequired("in")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole ledger instead of appending")
	cmd.Flags().StringVar(&actor, "actor", "admin", "name recorded on the ledger.saved event")
	return cmd
}
