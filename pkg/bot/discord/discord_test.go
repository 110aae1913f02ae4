package discord

import (
	"context"
	"testing"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
)

func TestNewRequiresIDAndToken(t *testing.T) {
	if _, err := New(config.DiscordConfig{Token: "t"}, nil); err == nil {
		t.Fatal("expected error without id")
	}
	if _, err := New(config.DiscordConfig{ID: "dc-main"}, nil); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestLifecycleBeforeStart(t *testing.T) {
	b, err := New(config.DiscordConfig{ID: "dc-main", Token: "t"}, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if b.Status() != bot.StatusOffline {
		t.Fatalf("status = %v, want offline before Start", b.Status())
	}
	if err := b.Broadcast(context.Background(), []string{"123"}, "hello"); err == nil {
		t.Fatal("expected error when broadcasting before Start")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close before Start: %v", err)
	}
}
