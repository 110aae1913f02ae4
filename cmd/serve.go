package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"webmoe/pkg/bot"
	"webmoe/pkg/bot/discord"
	"webmoe/pkg/bot/slack"
	"webmoe/pkg/bot/telegram"
	"webmoe/pkg/bridge"
	"webmoe/pkg/config"
	"webmoe/pkg/logger"
	"webmoe/pkg/version"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook bridge server",
	Long:  "Connects the configured bots and serves the Discourse webhook bridges.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.serve")

		adapters, err := enabledBots(cfg, log)
		if err != nil {
			log.Error("Bot configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := bridge.NewService(cfg, adapters, log)
		if err != nil {
			log.Error("Failed to initialize bridge service", "error", err)
			return
		}

		log.Info("webmoe started", "version", version.Version, "bots", botIDs(adapters))
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Bridge service failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// enabledBots constructs one adapter per enabled bot platform.
func enabledBots(cfg *config.Config, log *slog.Logger) ([]bot.Adapter, error) {
	adapters := make([]bot.Adapter, 0, 3)

	if cfg.Bots.Telegram.Enabled {
		adapter, err := telegram.New(cfg.Bots.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure telegram bot: %w", err)
		}
		adapters = append(adapters, adapter)
	}

	if cfg.Bots.Discord.Enabled {
		adapter, err := discord.New(cfg.Bots.Discord, log)
		if err != nil {
			return nil, fmt.Errorf("configure discord bot: %w", err)
		}
		adapters = append(adapters, adapter)
	}

	if cfg.Bots.Slack.Enabled {
		adapter, err := slack.New(cfg.Bots.Slack, log)
		if err != nil {
			return nil, fmt.Errorf("configure slack bot: %w", err)
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, errors.New("no bots are enabled")
	}

	return adapters, nil
}

func botIDs(adapters []bot.Adapter) string {
	ids := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		ids = append(ids, adapter.ID())
	}

	return strings.Join(ids, ",")
}
