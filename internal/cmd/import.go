package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/importer"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		userID int64
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a word list into a user's vocabulary",
		Long: `Import a .json, .yaml, .xlsx or .csv word list into the vocabulary of a
user who has already started the bot. Words the user already has are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := database.NewUserRepository(db).Get(ctx, userID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("user %d has no account; send /start to the bot first", userID)
				}
				return err
			}

			words := database.NewWordRepository(db, nil)
			existing, err := words.ExistingWords(ctx, userID)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open word list: %w", err)
			}
			defer f.Close()

			res, err := importer.Parse(args[0], f, existing)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range res.Errors {
				fmt.Fprintln(out, e)
			}
			fmt.Fprintln(out, res.Summary())

			if dryRun || len(res.Valid) == 0 {
				return nil
			}
			if _, err := words.AddBatch(ctx, userID, res.Valid); err != nil {
				return err
			}

			a.logger.Info("imported words", zap.Int64("user_id", userID), zap.Int("count", len(res.Valid)))
			fmt.Fprintf(out, "imported %d words\n", len(res.Valid))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id owning the words")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without saving")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
