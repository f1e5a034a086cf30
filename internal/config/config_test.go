package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any env vars that might be set
	for _, key := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "NICKFINDER_OUTPUT", "NICKFINDER_USERNAME",
		"NICKFINDER_PORT", "NATS_URL", "NATS_TOKEN", "SLACK_BOT_TOKEN",
		"SLACK_CHANNEL", "NICKFINDER_STRICT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected default log format text, got %s", cfg.LogFormat)
	}
	if cfg.Output != "output.json" {
		t.Errorf("expected default output output.json, got %s", cfg.Output)
	}
	if cfg.Username != "" {
		t.Errorf("expected empty default username, got %s", cfg.Username)
	}
	if cfg.Port != 8751 {
		t.Errorf("expected default port 8751, got %d", cfg.Port)
	}
	if cfg.NatsURL != "" {
		t.Errorf("expected NATS disabled by default, got %s", cfg.NatsURL)
	}
	if cfg.NatsToken != "" {
		t.Errorf("expected empty default nats token, got %s", cfg.NatsToken)
	}
	if cfg.SlackBotToken != "" || cfg.SlackChannel != "" {
		t.Errorf("expected slack disabled by default, got %s/%s", cfg.SlackBotToken, cfg.SlackChannel)
	}
	if cfg.Strict {
		t.Error("expected strict mode off by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("NICKFINDER_OUTPUT", "/tmp/nicknames.json")
	t.Setenv("NICKFINDER_USERNAME", "Zoë Ünal")
	t.Setenv("NICKFINDER_PORT", "9999")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("NATS_TOKEN", "s3cr3t-token")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL", "C12345")
	t.Setenv("NICKFINDER_STRICT", "true")

	cfg := Load()

	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json log format, got %s", cfg.LogFormat)
	}
	if cfg.Output != "/tmp/nicknames.json" {
		t.Errorf("expected custom output, got %s", cfg.Output)
	}
	if cfg.Username != "Zoë Ünal" {
		t.Errorf("expected custom username, got %s", cfg.Username)
	}
	if cfg.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Port)
	}
	if cfg.NatsURL != "nats://localhost:4222" {
		t.Errorf("expected custom nats url, got %s", cfg.NatsURL)
	}
	if cfg.NatsToken != "s3cr3t-token" {
		t.Errorf("expected custom nats token, got %s", cfg.NatsToken)
	}
	if cfg.SlackBotToken != "xoxb-test" {
		t.Errorf("expected custom slack token, got %s", cfg.SlackBotToken)
	}
	if cfg.SlackChannel != "C12345" {
		t.Errorf("expected custom slack channel, got %s", cfg.SlackChannel)
	}
	if !cfg.Strict {
		t.Error("expected strict mode on")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("NICKFINDER_PORT", "notanumber")
	t.Setenv("NICKFINDER_STRICT", "maybe")

	cfg := Load()

	if cfg.Port != 8751 {
		t.Errorf("expected default port on invalid value, got %d", cfg.Port)
	}
	if cfg.Strict {
		t.Error("expected strict mode off on invalid value")
	}
}
