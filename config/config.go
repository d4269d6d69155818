package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port     string
	LogLevel string

	// CORSAllow is the allowed-origin list for the HTTP surface.
	// Defaults to "*", matching the historical deployment.
	CORSAllow []string

	// RoomCodeLength is the generated room code length.
	RoomCodeLength int

	// DedupeJoins collapses repeat joins of the same room into one
	// membership. Off by default: the reference behavior appends,
	// and a double join means double delivery.
	DedupeJoins bool
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSAllow:      splitCSV(getEnv("CORS_ALLOW", "*")),
		RoomCodeLength: getEnvInt("ROOM_CODE_LENGTH", 6),
		DedupeJoins:    getEnvBool("ROOM_DEDUPE_JOINS", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
