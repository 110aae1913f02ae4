package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
)

// Dispatcher orchestrates one webhook bridge: it maps an inbound event to a
// broadcast message and a response envelope.
//
// One dispatcher exists per configured bridge; all state is fixed at
// construction, so Dispatch is safe for concurrent requests.
type Dispatcher struct {
	name     string
	path     string
	selfID   string
	targets  []string
	registry Registry
	bots     *bot.Registry
	log      *slog.Logger
}

// NewDispatcher builds a dispatcher from one bridge config entry.
func NewDispatcher(cfg config.BridgeConfig, bots *bot.Registry, log *slog.Logger) (*Dispatcher, error) {
	if bots == nil {
		return nil, fmt.Errorf("bridge %q: bot registry is required", cfg.Name)
	}
	if log == nil {
		log = slog.Default()
	}

	registry, err := RegistryFor(cfg.Events, cfg.ForumHost)
	if err != nil {
		return nil, fmt.Errorf("bridge %q: %w", cfg.Name, err)
	}

	return &Dispatcher{
		name:     cfg.Name,
		path:     cfg.WebhookPath,
		selfID:   cfg.SelfID,
		targets:  slices.Clone(cfg.GuildsToBroadcast),
		registry: registry,
		bots:     bots,
		log:      log.With("component", "bridge."+cfg.Name),
	}, nil
}

// Name returns the bridge name from config.
func (d *Dispatcher) Name() string { return d.name }

// Path returns the webhook path this bridge is mounted on.
func (d *Dispatcher) Path() string { return d.path }

// Dispatch handles one inbound webhook event end to end.
//
// Outcomes, short-circuiting in order: error when the bot is missing or
// offline, ignored when the event name is outside the vocabulary, error
// when the payload cannot be formatted, otherwise ok with the configured
// fan-out count. The broadcast itself is fire-and-forget; its failures
// never reach the response.
func (d *Dispatcher) Dispatch(ctx context.Context, eventName string, payload json.RawMessage) Envelope {
	d.log.Info("New event", "event", eventName, "payload", string(payload))

	b, ok := d.bots.Lookup(d.selfID)
	if !ok {
		d.log.Warn("Bot not found", "bot_id", d.selfID)
		return Error(ReasonBotNotFound)
	}
	if b.Status() != bot.StatusOnline {
		d.log.Warn("Bot is not online", "bot_id", d.selfID)
		return Error(ReasonBotNotOnline)
	}

	format, ok := d.registry.Lookup(eventName)
	if !ok {
		return Ignored()
	}

	message, err := format(payload)
	if err != nil {
		d.log.Error("Failed to format event", "event", eventName, "error", err, "payload", string(payload))
		return Error(ReasonMalformedPayload)
	}

	d.broadcast(ctx, b, message)

	return OKBroadcast(len(d.targets))
}

// broadcast spawns the send on a detached context so neither response
// completion nor request cancellation can interrupt delivery, and no
// delivery failure can alter the response already being written.
func (d *Dispatcher) broadcast(ctx context.Context, b bot.Bot, message string) {
	detached := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("Broadcast panicked", "bot_id", d.selfID, "panic", r)
			}
		}()

		if err := b.Broadcast(detached, d.targets, message); err != nil {
			d.log.Error("Broadcast failed", "bot_id", d.selfID, "error", err)
		}
	}()
}
