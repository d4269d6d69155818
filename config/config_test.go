package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "CORS_ALLOW", "ROOM_CODE_LENGTH", "ROOM_DEDUPE_JOINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllow)
	assert.Equal(t, 6, cfg.RoomCodeLength)
	assert.False(t, cfg.DedupeJoins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOW", "https://a.example, https://b.example")
	t.Setenv("ROOM_CODE_LENGTH", "4")
	t.Setenv("ROOM_DEDUPE_JOINS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllow)
	assert.Equal(t, 4, cfg.RoomCodeLength)
	assert.True(t, cfg.DedupeJoins)
}

func TestLoadIgnoresBadValues(t *testing.T) {
	t.Setenv("ROOM_CODE_LENGTH", "many")
	t.Setenv("ROOM_DEDUPE_JOINS", "oui")

	cfg := Load()

	assert.Equal(t, 6, cfg.RoomCodeLength)
	assert.False(t, cfg.DedupeJoins)
}
