package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/importer"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		userID int64
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's vocabulary",
		Long:  "Export a user's vocabulary as xlsx, json or yaml. The format defaults to the output file extension.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			}
			if format == "" {
				format = importer.FormatJSON
			}

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := database.NewWordRepository(db, nil).ListByOwner(cmd.Context(), userID, database.SortAlphabetical)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := importer.Export(w, format, entries); err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d words to %s\n", len(entries), output)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id owning the words")
	cmd.Flags().StringVarP(&format, "format", "f", "", "xlsx, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
