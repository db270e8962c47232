// Package config loads server and client configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server holds everything the API server needs.
type Server struct {
	// CredentialsJSON is the Google service account key. Taken from
	// GOOGLE_CREDENTIALS, either raw JSON or base64 of it.
	CredentialsJSON []byte
	SpreadsheetID   string
	SheetName       string
	ListenAddr      string
	LogFormat       string // "json" or "text"
	LogLevel        string
}

// Client holds everything the CLI-side commands need.
type Client struct {
	ServerURL    string
	PollInterval time.Duration
	// Telegram notification target; both empty disables the notifier.
	TelegramToken  string
	TelegramChatID int64
}

// LoadServer reads server configuration from the environment.
func LoadServer() (*Server, error) {
	_ = godotenv.Load()

	cfg := &Server{
		SpreadsheetID: os.Getenv("SPREADSHEET_ID"),
		SheetName:     os.Getenv("SHEET_NAME"),
		ListenAddr:    getEnv("COMPRA_LISTEN_ADDR", ":8080"),
		LogFormat:     getEnv("COMPRA_LOG_FORMAT", "text"),
		LogLevel:      getEnv("COMPRA_LOG_LEVEL", "info"),
	}

	raw := os.Getenv("GOOGLE_CREDENTIALS")
	if raw == "" {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS environment variable is not set")
	}
	cfg.CredentialsJSON = decodeCredentials(raw)

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID environment variable is not set")
	}
	if cfg.SheetName == "" {
		return nil, fmt.Errorf("SHEET_NAME environment variable is not set")
	}
	return cfg, nil
}

// LoadClient reads CLI configuration from the environment.
func LoadClient() (*Client, error) {
	_ = godotenv.Load()

	cfg := &Client{
		ServerURL:     getEnv("COMPRA_SERVER_URL", "http://localhost:8080"),
		PollInterval:  30 * time.Second,
		TelegramToken: os.Getenv("COMPRA_TELEGRAM_TOKEN"),
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if raw := os.Getenv("COMPRA_POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("COMPRA_POLL_INTERVAL is not a valid duration: %q", raw)
		}
		cfg.PollInterval = d
	}

	if raw := os.Getenv("COMPRA_TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("COMPRA_TELEGRAM_CHAT_ID is not a valid chat id: %q", raw)
		}
		cfg.TelegramChatID = id
	}
	return cfg, nil
}

// decodeCredentials accepts the key either as raw JSON or base64-encoded
// JSON, since deployment platforms differ in what their env editors tolerate.
func decodeCredentials(raw string) []byte {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed)
	}
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return decoded
	}
	return []byte(trimmed)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
