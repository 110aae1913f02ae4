// Package bot defines the chat-bot capability the webhook bridges depend on.
//
// Bridges only ever see this interface; the concrete adapters (Telegram,
// Discord, Slack) live in subpackages and are wired in at startup.
package bot

import "context"

// Status is a bot liveness indicator.
type Status int

const (
	StatusOffline Status = iota
	StatusOnline
)

// String returns the lowercase status name for logs.
func (s Status) String() string {
	if s == StatusOnline {
		return "online"
	}

	return "offline"
}

// Bot is one connected chat-bot identity.
type Bot interface {
	// ID returns the configured bot identity bridges reference via self_id.
	ID() string

	// Status reports current liveness. Only StatusOnline bots may broadcast.
	Status() Status

	// Broadcast sends one message to every target group, in order.
	// Per-target failures are logged by the implementation and do not stop
	// delivery to the remaining targets.
	Broadcast(ctx context.Context, targets []string, message string) error
}

// Adapter extends Bot with the connection lifecycle managed by the service.
type Adapter interface {
	Bot

	// Start connects to the chat platform and flips the bot online.
	Start(ctx context.Context) error

	// Close disconnects and flips the bot offline.
	Close() error
}
