// Package telegram implements the bot capability on the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
)

// Bot broadcasts bridge messages into Telegram group chats.
type Bot struct {
	cfg config.TelegramConfig
	log *slog.Logger

	mu     sync.RWMutex
	client *telego.Bot
	status bot.Status
}

var _ bot.Adapter = (*Bot)(nil)

// New validates Telegram configuration and constructs the adapter.
func New(cfg config.TelegramConfig, log *slog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("bots.telegram.id is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("bots.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Bot{
		cfg: cfg,
		log: log.With("component", "bot.telegram"),
	}, nil
}

// ID returns the configured bot identity.
func (b *Bot) ID() string {
	return b.cfg.ID
}

// Status reports liveness; online only after a successful Start.
func (b *Bot) Status() bot.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Start verifies the token against the Bot API and flips the bot online.
func (b *Bot) Start(ctx context.Context) error {
	client, err := telego.NewBot(strings.TrimSpace(b.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify telegram bot: %w", err)
	}

	b.mu.Lock()
	b.client = client
	b.status = bot.StatusOnline
	b.mu.Unlock()

	b.log.Info("Telegram bot connected", "username", me.Username)
	return nil
}

// Close flips the bot offline. The Bot API client itself is stateless.
func (b *Bot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.client = nil
	b.status = bot.StatusOffline
	return nil
}

// Broadcast sends message to every target chat in order. A failing target
// is logged and skipped; remaining targets still receive the message.
func (b *Bot) Broadcast(ctx context.Context, targets []string, message string) error {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	if client == nil {
		return errors.New("telegram bot is not connected")
	}

	var errs []error
	for _, target := range targets {
		chatID, err := parseChatID(target)
		if err != nil {
			b.log.Error("Invalid telegram chat id", "target", target, "error", err)
			errs = append(errs, err)
			continue
		}

		if _, err := client.SendMessage(ctx, tu.Message(tu.ID(chatID), message)); err != nil {
			b.log.Error("Failed to send telegram message", "chat_id", chatID, "error", err)
			errs = append(errs, fmt.Errorf("send to chat %d: %w", chatID, err))
		}
	}

	return errors.Join(errs...)
}

// parseChatID converts a configured group identifier into a Telegram chat id.
func parseChatID(target string) (int64, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chat id %q: %w", target, err)
	}

	return chatID, nil
}
