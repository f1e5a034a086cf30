package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel      string
	LogFormat     string
	Output        string
	Username      string
	Port          int
	NatsURL       string
	NatsToken     string
	SlackBotToken string
	SlackChannel  string
	Strict        bool
}

func Load() Config {
	return Config{
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", "text"),
		Output:        envStr("NICKFINDER_OUTPUT", "output.json"),
		Username:      envStr("NICKFINDER_USERNAME", ""),
		Port:          envInt("NICKFINDER_PORT", 8751),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_CHANNEL", ""),
		Strict:        envBool("NICKFINDER_STRICT", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
