// Package discord implements the bot capability on the Discord gateway.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
)

// Bot broadcasts bridge messages into Discord channels.
type Bot struct {
	cfg config.DiscordConfig
	log *slog.Logger

	mu      sync.RWMutex
	session *discordgo.Session
	status  bot.Status
}

var _ bot.Adapter = (*Bot)(nil)

// New validates Discord configuration and constructs the adapter.
func New(cfg config.DiscordConfig, log *slog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("bots.discord.id is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("bots.discord.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Bot{
		cfg: cfg,
		log: log.With("component", "bot.discord"),
	}, nil
}

// ID returns the configured bot identity.
func (b *Bot) ID() string {
	return b.cfg.ID
}

// Status reports liveness; online only while the gateway session is open.
func (b *Bot) Status() bot.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Start opens the Discord gateway session and flips the bot online.
func (b *Bot) Start(_ context.Context) error {
	session, err := discordgo.New("Bot " + strings.TrimSpace(b.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize discord session: %w", err)
	}

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	b.mu.Lock()
	b.session = session
	b.status = bot.StatusOnline
	b.mu.Unlock()

	b.log.Info("Discord bot connected")
	return nil
}

// Close shuts the gateway session and flips the bot offline.
func (b *Bot) Close() error {
	b.mu.Lock()
	session := b.session
	b.session = nil
	b.status = bot.StatusOffline
	b.mu.Unlock()

	if session == nil {
		return nil
	}

	return session.Close()
}

// Broadcast sends message to every target channel in order. A failing
// target is logged and skipped; remaining targets still receive the message.
func (b *Bot) Broadcast(_ context.Context, targets []string, message string) error {
	b.mu.RLock()
	session := b.session
	b.mu.RUnlock()

	if session == nil {
		return errors.New("discord bot is not connected")
	}

	var errs []error
	for _, target := range targets {
		channelID := strings.TrimSpace(target)
		if channelID == "" {
			continue
		}

		if _, err := session.ChannelMessageSend(channelID, message); err != nil {
			b.log.Error("Failed to send discord message", "channel_id", channelID, "error", err)
			errs = append(errs, fmt.Errorf("send to channel %s: %w", channelID, err))
		}
	}

	return errors.Join(errs...)
}
