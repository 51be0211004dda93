package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3002", cfg.HTTPPort)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.AuthRequired)
	assert.False(t, cfg.SeedOnStart)
	assert.Equal(t, DefaultCredentials, cfg.Credentials)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("ACCESS_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg := Load()

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, 4, cfg.DBMaxConns)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("CHAT_ARCHIVE", "maybe")
	t.Setenv("ACCESS_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.False(t, cfg.ChatArchive)
	assert.Equal(t, 12*time.Hour, cfg.AccessTTL)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	cfg := App{Timezone: "Nowhere/Atlantis"}
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}
