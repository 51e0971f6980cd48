package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:8000"

type Config struct {
	BaseURL       string
	Port          int
	APIToken      string
	ChatTimeout   time.Duration
	UploadTimeout time.Duration
	NatsURL       string
	NatsToken     string
	LogLevel      string
}

func Load() Config {
	return Config{
		BaseURL:       NormalizeBaseURL(envStr("SECONDBRAIN_BASE_URL", DefaultBaseURL)),
		Port:          envInt("SECONDBRAIN_PORT", 8760),
		APIToken:      envStr("SECONDBRAIN_API_TOKEN", ""),
		ChatTimeout:   time.Duration(envInt("SECONDBRAIN_CHAT_TIMEOUT", 120)) * time.Second,
		UploadTimeout: time.Duration(envInt("SECONDBRAIN_UPLOAD_TIMEOUT", 300)) * time.Second,
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
	}
}

// NormalizeBaseURL trims surrounding space and trailing slashes so endpoint
// paths can be appended directly. An empty value yields DefaultBaseURL.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return DefaultBaseURL
	}
	return u
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
