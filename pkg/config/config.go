package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultWebhookPath is used when a bridge does not configure its own path.
	DefaultWebhookPath = "/discourse"

	// DefaultEvents selects the reply-announcement vocabulary.
	DefaultEvents = "posts"

	defaultForumHost = "web.moe"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Server  ServerConfig   `json:"server"`
	Logging LoggingConfig  `json:"logging,omitempty"`
	Bots    BotsConfig     `json:"bots"`
	Bridges []BridgeConfig `json:"bridges"`
}

// ServerConfig configures HTTP bind settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// BotsConfig stores per-platform bot adapter settings.
type BotsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Slack    SlackConfig    `json:"slack"`
}

// TelegramConfig configures the Telegram bot adapter.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	ID      string `json:"id"`
	Token   string `json:"token"`
}

// DiscordConfig configures the Discord bot adapter.
type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	ID      string `json:"id"`
	Token   string `json:"token"`
}

// SlackConfig configures the Slack bot adapter.
type SlackConfig struct {
	Enabled bool   `json:"enabled"`
	ID      string `json:"id"`
	Token   string `json:"token"`
}

// BridgeConfig describes one webhook bridge instance.
//
// Each bridge owns one webhook path, one event vocabulary, one bot identity,
// and one fixed list of broadcast targets.
type BridgeConfig struct {
	Name              string   `json:"name"`
	WebhookPath       string   `json:"webhook_path"`
	SelfID            string   `json:"self_id"`
	GuildsToBroadcast []string `json:"guilds_to_broadcast"`
	Events            string   `json:"events"`
	ForumHost         string   `json:"forum_host,omitempty"`
}

// envOverrides are applied on top of the file config. Tokens are routinely
// injected through the environment in deployments.
type envOverrides struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	DiscordToken  string `env:"DISCORD_BOT_TOKEN"`
	SlackToken    string `env:"SLACK_BOT_TOKEN"`
}

// LoadConfig resolves config.json, unmarshals it, applies environment
// overrides, and fills per-bridge defaults.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyBridgeDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (cfg *Config) Validate() error {
	if len(cfg.Bridges) == 0 {
		return errors.New("at least one bridge is required")
	}

	paths := make(map[string]string, len(cfg.Bridges))
	for i := range cfg.Bridges {
		bridge := &cfg.Bridges[i]
		if strings.TrimSpace(bridge.Name) == "" {
			return fmt.Errorf("bridges[%d]: name is required", i)
		}
		if strings.TrimSpace(bridge.SelfID) == "" {
			return fmt.Errorf("bridge %q: self_id is required", bridge.Name)
		}
		if len(bridge.GuildsToBroadcast) == 0 {
			return fmt.Errorf("bridge %q: guilds_to_broadcast is required", bridge.Name)
		}
		if path := bridge.WebhookPath; path != "" && !strings.HasPrefix(path, "/") {
			return fmt.Errorf("bridge %q: webhook_path must start with /", bridge.Name)
		}
		if bridge.WebhookPath == "/healthz" || bridge.WebhookPath == "/readyz" {
			return fmt.Errorf("bridge %q: webhook_path %q is reserved", bridge.Name, bridge.WebhookPath)
		}
		if owner, taken := paths[bridge.WebhookPath]; taken {
			return fmt.Errorf("bridge %q: webhook_path %q already used by bridge %q", bridge.Name, bridge.WebhookPath, owner)
		}
		paths[bridge.WebhookPath] = bridge.Name
	}

	return nil
}

// applyEnvOverrides injects env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse environment overrides: %w", err)
	}

	if token := strings.TrimSpace(overrides.TelegramToken); token != "" {
		cfg.Bots.Telegram.Token = token
	}
	if token := strings.TrimSpace(overrides.DiscordToken); token != "" {
		cfg.Bots.Discord.Token = token
	}
	if token := strings.TrimSpace(overrides.SlackToken); token != "" {
		cfg.Bots.Slack.Token = token
	}

	return nil
}

// applyBridgeDefaults fills unset optional bridge fields.
func applyBridgeDefaults(cfg *Config) {
	for i := range cfg.Bridges {
		bridge := &cfg.Bridges[i]
		if strings.TrimSpace(bridge.WebhookPath) == "" {
			bridge.WebhookPath = DefaultWebhookPath
		}
		if strings.TrimSpace(bridge.Events) == "" {
			bridge.Events = DefaultEvents
		}
		if strings.TrimSpace(bridge.ForumHost) == "" {
			bridge.ForumHost = defaultForumHost
		}
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is WEBMOE_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("WEBMOE_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("WEBMOE_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
