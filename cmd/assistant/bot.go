package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voice-assistant/internal/auth"
	"voice-assistant/internal/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Serve the assistant as a Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TelegramBotToken == "" {
			return errors.New("TELEGRAM_BOT_TOKEN is required")
		}
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		var allowRepo auth.Repository
		if cfg.AllowlistFilePath != "" {
			repo, err := auth.NewFileRepository(cfg.AllowlistFilePath)
			if err != nil {
				logger.Warn("allowlist file disabled", zap.Error(err))
			} else {
				allowRepo = repo
			}
		}
		authSvc, err := auth.NewWithRepo(allowRepo, cfg.AllowedUsers)
		if err != nil {
			return err
		}

		var pendingRepo auth.Repository
		if cfg.PendingFilePath != "" {
			repo, err := auth.NewFileRepository(cfg.PendingFilePath)
			if err != nil {
				logger.Warn("pending requests file disabled", zap.Error(err))
			} else {
				pendingRepo = repo
			}
		}

		bot, err := telegram.New(cfg.TelegramBotToken, authSvc, a.pool, a.recorder, pendingRepo, cfg.AdminUserID, logger.Named("telegram"))
		if err != nil {
			return err
		}
		if cfg.AdminUserID != 0 {
			a.scheduler.SetReportFunction(cfg.ReportSchedule, bot.DailyReport)
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error { return bot.Start(ctx) })
		g.Go(func() error { return a.runScheduler(ctx) })
		g.Go(func() error { return a.serveMetrics(ctx) })
		return g.Wait()
	},
}
