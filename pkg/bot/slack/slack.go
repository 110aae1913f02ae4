// Package slack implements the bot capability on the Slack Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	slackapi "github.com/slack-go/slack"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
)

// Bot broadcasts bridge messages into Slack channels.
type Bot struct {
	cfg config.SlackConfig
	log *slog.Logger

	mu     sync.RWMutex
	client *slackapi.Client
	status bot.Status
}

var _ bot.Adapter = (*Bot)(nil)

// New validates Slack configuration and constructs the adapter.
func New(cfg config.SlackConfig, log *slog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("bots.slack.id is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("bots.slack.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Bot{
		cfg: cfg,
		log: log.With("component", "bot.slack"),
	}, nil
}

// ID returns the configured bot identity.
func (b *Bot) ID() string {
	return b.cfg.ID
}

// Status reports liveness; online only after a successful auth test.
func (b *Bot) Status() bot.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Start verifies the token against the Web API and flips the bot online.
func (b *Bot) Start(ctx context.Context) error {
	client := slackapi.New(strings.TrimSpace(b.cfg.Token))

	identity, err := client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("verify slack bot: %w", err)
	}

	b.mu.Lock()
	b.client = client
	b.status = bot.StatusOnline
	b.mu.Unlock()

	b.log.Info("Slack bot connected", "user", identity.User, "team", identity.Team)
	return nil
}

// Close flips the bot offline. The Web API client itself is stateless.
func (b *Bot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.client = nil
	b.status = bot.StatusOffline
	return nil
}

// Broadcast sends message to every target channel in order. A failing
// target is logged and skipped; remaining targets still receive the message.
func (b *Bot) Broadcast(ctx context.Context, targets []string, message string) error {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	if client == nil {
		return errors.New("slack bot is not connected")
	}

	var errs []error
	for _, target := range targets {
		channelID := strings.TrimSpace(target)
		if channelID == "" {
			continue
		}

		_, _, err := client.PostMessageContext(ctx, channelID, slackapi.MsgOptionText(message, false))
		if err != nil {
			b.log.Error("Failed to send slack message", "channel_id", channelID, "error", err)
			errs = append(errs, fmt.Errorf("send to channel %s: %w", channelID, err))
		}
	}

	return errors.Join(errs...)
}
