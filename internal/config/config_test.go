package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "database", cfg.Repository.Backend)
	assert.Equal(t, 3, cfg.Game.MinPlayers)
	assert.Equal(t, 6, cfg.Game.RoomCodeLength)
	assert.Equal(t, 10, cfg.Game.MaxCodeAttempts)
	assert.Equal(t, "first_seen", cfg.Game.TieBreak)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, "mafia.rooms", cfg.NATS.SubjectPrefix)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
repository:
  backend: redis
redis:
  addr: redis:6380
  room_ttl: 2h
game:
  tie_break: lowest_id
  min_players: 5
`))
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Repository.Backend)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Redis.RoomTTL)
	assert.Equal(t, "lowest_id", cfg.Game.TieBreak)
	assert.Equal(t, 5, cfg.Game.MinPlayers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MAFIA_GAME_GAME_TIE_BREAK", "no_elimination")

	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "no_elimination", cfg.Game.TieBreak)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("未知存储后端", func(t *testing.T) {
		_, err := Load(writeConfig(t, "repository:\n  backend: mongo\n"))
		assert.Error(t, err)
	})

	t.Run("未知平票规则", func(t *testing.T) {
		_, err := Load(writeConfig(t, "game:\n  tie_break: random\n"))
		assert.Error(t, err)
	})

	t.Run("房间码重试次数为0", func(t *testing.T) {
		_, err := Load(writeConfig(t, "game:\n  max_code_attempts: 0\n"))
		assert.Error(t, err)
	})
}
