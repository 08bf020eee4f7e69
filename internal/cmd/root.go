// Package cmd wires the grevocab command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/config"
	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/logger"
)

// app carries what the persistent pre-run loads for every subcommand
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func (a *app) load(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log
	return nil
}

func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	return database.Connect(ctx, database.Config{
		Driver:  a.cfg.Database.Type,
		DSN:     a.cfg.Database.DSN,
		DataDir: a.cfg.Database.DataDir,
	})
}

// NewRootCmd creates the root command for grevocab.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "grevocab",
		Short: "Build and study a GRE vocabulary",
		Long: `Build and study a GRE vocabulary.

grevocab provides tools to:
- Run the Telegram bot and its study reminders
- Pull word definitions out of study documents
- Import and export word lists
- Apply database migrations`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(newBotCmd(a))
	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newMigrateCmd(a))

	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "grevocab: %v\n", err)
		os.Exit(1)
	}
}
