package models

import (
	"time"
)

// RoomRecord 房间持久化记录，完整房间以JSON文档保存
type RoomRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:16;not null" json:"code"`
	LeaderID  string    `gorm:"index;size:64;not null" json:"leader_id"`
	Status    string    `gorm:"index;size:16;not null" json:"status"`
	Revision  int64     `gorm:"not null;default:1" json:"revision"` // 乐观锁版本号
	Document  string    `gorm:"type:text;not null" json:"document"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (RoomRecord) TableName() string {
	return "rooms"
}

// AllModels 需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&RoomRecord{},
	}
}
