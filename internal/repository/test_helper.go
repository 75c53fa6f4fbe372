package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建内存测试数据库并迁移
func TestDB(t *testing.T) *gorm.DB {
	// 每个测试独立的内存库
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// sqlite 内存库每个连接独立，限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() {
		CleanupTestDB(db)
	})
	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestRoom 创建测试房间
func CreateTestRoom(code, leaderID string) *game.Room {
	room := game.NewRoom(code, leaderID, time.Now())
	room.Narrator = &game.Player{ID: leaderID, Name: "Narrator"}
	room.Players = []game.Player{
		{ID: "p1", Name: "Alice"},
		{ID: "p2", Name: "Bob"},
	}
	return room
}
