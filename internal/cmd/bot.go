package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/bot"
	"github.com/example/grevocab/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and study reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			b, err := bot.NewBot(a.cfg, db, a.logger)
			if err != nil {
				return err
			}

			if a.cfg.Scheduler.Enabled {
				s := scheduler.New(scheduler.Config{
					StartHour: a.cfg.Scheduler.StartHour,
					EndHour:   a.cfg.Scheduler.EndHour,
					Location:  a.cfg.Location(),
				}, b, b.Users(), b.Statistics(), a.logger)
				if err := s.Start(ctx); err != nil {
					return err
				}
				defer s.Stop()
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- b.Start(ctx)
			}()
			a.logger.Info("bot started, press Ctrl+C to stop")

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down")
			case err := <-errCh:
				if err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("bot error", zap.Error(err))
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := b.Stop(shutdownCtx); err != nil {
				a.logger.Error("error during shutdown", zap.Error(err))
			}
			a.logger.Info("bot stopped successfully")
			return nil
		},
	}
}
