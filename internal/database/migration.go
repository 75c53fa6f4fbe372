package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wfunc/mafia-game/internal/logger"
	"github.com/wfunc/mafia-game/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate 迁移全局数据库
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath(DB)
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	return Migrate(DB)
}

// Migrate 在指定连接上执行表结构迁移
func Migrate(db *gorm.DB) error {
	logger.Info("开始数据库迁移...")

	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("table", getTableName(model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建组合索引，失败只记录警告
func createIndexes(db *gorm.DB) {
	indexes := map[string]string{
		"idx_rooms_status_updated_at": "CREATE INDEX IF NOT EXISTS idx_rooms_status_updated_at ON rooms(status, updated_at)",
	}
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}
}

// getTableName 获取模型对应的表名
func getTableName(model interface{}) string {
	// 尝试调用TableName方法
	if tabler, ok := model.(interface{ TableName() string }); ok {
		return tabler.TableName()
	}

	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	// 否则使用GORM默认的表名规则
	return toSnakeCase(t.Name()) + "s"
}

// toSnakeCase 将驼峰命名转换为蛇形命名
func toSnakeCase(s string) string {
	var result []rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result = append(result, '_')
		}
		result = append(result, r)
	}
	return strings.ToLower(string(result))
}
