package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/logger"
	"github.com/wfunc/mafia-game/internal/models"
	"gorm.io/gorm"
)

// roomRepo 基于gorm的房间仓储
type roomRepo struct {
	*BaseRepo
}

// NewRoomRepository 创建数据库房间仓储
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

func parseRecordID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// toRoom 列值优先于文档中的冗余字段
func toRoom(rec *models.RoomRecord) (*game.Room, error) {
	room, err := decodeRoom([]byte(rec.Document))
	if err != nil {
		return nil, err
	}
	room.ID = strconv.FormatUint(uint64(rec.ID), 10)
	room.Code = rec.Code
	room.Revision = rec.Revision
	return room, nil
}

// FindByCode 按房间码查找
func (r *roomRepo) FindByCode(ctx context.Context, code string) (*game.Room, error) {
	start := time.Now()
	var rec models.RoomRecord
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	logger.LogDatabaseOperation("find_by_code", rec.TableName(), time.Since(start), ignoreNotFound(err))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return toRoom(&rec)
}

// Get 按ID读取
func (r *roomRepo) Get(ctx context.Context, id string) (*game.Room, error) {
	recordID, ok := parseRecordID(id)
	if !ok {
		return nil, roomNotFound(id)
	}
	var rec models.RoomRecord
	err := r.db.WithContext(ctx).First(&rec, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, roomNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return toRoom(&rec)
}

// Insert 写入新房间
func (r *roomRepo) Insert(ctx context.Context, room *game.Room) (string, error) {
	start := time.Now()
	stored := room.Clone()
	stored.Revision = 1

	doc, err := encodeRoom(stored)
	if err != nil {
		return "", err
	}
	rec := &models.RoomRecord{
		Code:      stored.Code,
		LeaderID:  stored.LeaderID,
		Status:    string(stored.Status),
		Revision:  stored.Revision,
		Document:  string(doc),
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}

	err = r.db.WithContext(ctx).Create(rec).Error
	logger.LogDatabaseOperation("insert", rec.TableName(), time.Since(start), err)
	if err != nil {
		if isUniqueViolation(err) {
			return "", apperrors.Newf(apperrors.ErrAlreadyExists, "room code %s already in use", stored.Code)
		}
		return "", apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return strconv.FormatUint(uint64(rec.ID), 10), nil
}

// Patch 在事务内读取、校验版本并以版本号为条件更新
func (r *roomRepo) Patch(ctx context.Context, id string, expectedRevision int64, patch *game.Patch) (*game.Room, error) {
	recordID, ok := parseRecordID(id)
	if !ok {
		return nil, roomNotFound(id)
	}

	start := time.Now()
	var result *game.Room
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		var rec models.RoomRecord
		if err := tx.First(&rec, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return roomNotFound(id)
			}
			return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
		}

		current, err := toRoom(&rec)
		if err != nil {
			return err
		}
		next, err := applyPatch(current, expectedRevision, patch, time.Now())
		if err != nil {
			return err
		}
		doc, err := encodeRoom(next)
		if err != nil {
			return err
		}

		res := tx.Model(&models.RoomRecord{}).
			Where("id = ? AND revision = ?", rec.ID, expectedRevision).
			Updates(map[string]interface{}{
				"leader_id":  next.LeaderID,
				"status":     string(next.Status),
				"revision":   next.Revision,
				"document":   string(doc),
				"updated_at": next.UpdatedAt,
			})
		if res.Error != nil {
			return apperrors.Wrap(res.Error, apperrors.ErrDatabaseUpdate)
		}
		if res.RowsAffected == 0 {
			return apperrors.Newf(apperrors.ErrRevisionConflict,
				"room %s was modified concurrently", rec.Code)
		}
		result = next
		return nil
	})
	logger.LogDatabaseOperation("patch", models.RoomRecord{}.TableName(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// isUniqueViolation 兼容 sqlite/mysql/postgres 的唯一约束错误
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
