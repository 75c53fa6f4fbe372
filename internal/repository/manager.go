package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 仓储后端
const (
	BackendDatabase = "database"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// ManagerOptions 仓储管理器参数
type ManagerOptions struct {
	Backend   string
	DB        *gorm.DB
	Redis     *redis.Client
	KeyPrefix string
	RoomTTL   time.Duration
}

// Manager 仓储管理器，按配置的后端提供房间仓储
type Manager struct {
	opts ManagerOptions

	// 仓储实例（使用懒加载）
	roomOnce sync.Once
	room     RoomRepository
}

// NewManager 创建仓储管理器
func NewManager(opts ManagerOptions) (*Manager, error) {
	switch opts.Backend {
	case "", BackendDatabase:
		if opts.DB == nil {
			return nil, fmt.Errorf("database backend requires a gorm connection")
		}
		opts.Backend = BackendDatabase
	case BackendRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis backend requires a redis client")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown repository backend: %s", opts.Backend)
	}
	return &Manager{opts: opts}, nil
}

// Backend 当前后端
func (m *Manager) Backend() string {
	return m.opts.Backend
}

// GetDB 获取数据库实例，非数据库后端返回 nil
func (m *Manager) GetDB() *gorm.DB {
	return m.opts.DB
}

// Rooms 获取房间仓储
func (m *Manager) Rooms() RoomRepository {
	m.roomOnce.Do(func() {
		switch m.opts.Backend {
		case BackendRedis:
			m.room = NewRedisRoomRepository(m.opts.Redis, m.opts.KeyPrefix, m.opts.RoomTTL)
		case BackendMemory:
			m.room = NewMemoryRoomRepository()
		default:
			m.room = NewRoomRepository(m.opts.DB)
		}
	})
	return m.room
}
