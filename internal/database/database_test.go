package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/mafia-game/internal/config"
	"github.com/wfunc/mafia-game/internal/models"
)

func TestOpenAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "mafia.db")
	db, err := Open(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             dsn,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Minute,
		LogLevel:        "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&models.RoomRecord{}))
	assert.True(t, db.Migrator().HasIndex(&models.RoomRecord{}, "idx_rooms_code"))
	assert.NoError(t, Ping(db))

	// sqlite 能解析出文件路径
	assert.Equal(t, "mafia.db", filepath.Base(getDBPath(db)))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrationLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lock.db")

	lock, err := acquireMigrationLock(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath + ".migration.lock")
	assert.NoError(t, err)

	releaseMigrationLock(lock)
	_, err = os.Stat(dbPath + ".migration.lock")
	assert.True(t, os.IsNotExist(err))

	// 过期锁会被接管
	stale := dbPath + ".migration.lock"
	require.NoError(t, os.WriteFile(stale, nil, 0644))
	old := time.Now().Add(-2 * lockStaleAfter)
	require.NoError(t, os.Chtimes(stale, old, old))

	lock, err = acquireMigrationLock(dbPath)
	require.NoError(t, err)
	releaseMigrationLock(lock)
}

func TestGetTableName(t *testing.T) {
	assert.Equal(t, "rooms", getTableName(&models.RoomRecord{}))

	type PlayerSeat struct{}
	assert.Equal(t, "player_seats", getTableName(&PlayerSeat{}))
	assert.Equal(t, "player_seat", toSnakeCase("PlayerSeat"))
}

func TestPingNil(t *testing.T) {
	assert.Error(t, Ping(nil))
}
