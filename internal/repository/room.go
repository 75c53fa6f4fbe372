package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
)

// RoomRepository 房间仓储接口
//
// Patch 以读取时的版本号作为条件写入，版本不一致时返回 ErrRevisionConflict，
// 由调用方决定是否重新加载后重试。
type RoomRepository interface {
	// FindByCode 按房间码查找，不存在时返回 nil, nil
	FindByCode(ctx context.Context, code string) (*game.Room, error)
	// Get 按ID读取，不存在时返回 ErrRoomNotFound
	Get(ctx context.Context, id string) (*game.Room, error)
	// Insert 写入新房间，房间码冲突时返回 ErrAlreadyExists
	Insert(ctx context.Context, room *game.Room) (string, error)
	// Patch 条件更新，返回写入后的房间
	Patch(ctx context.Context, id string, expectedRevision int64, patch *game.Patch) (*game.Room, error)
}

// applyPatch 校验版本号并生成新版本
func applyPatch(current *game.Room, expectedRevision int64, patch *game.Patch, now time.Time) (*game.Room, error) {
	if current.Revision != expectedRevision {
		return nil, apperrors.Newf(apperrors.ErrRevisionConflict,
			"room %s expected revision %d, found %d", current.Code, expectedRevision, current.Revision)
	}
	next := patch.Apply(current, now)
	next.Revision = current.Revision + 1
	return next, nil
}

func encodeRoom(room *game.Room) ([]byte, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDataIntegrity, "encode room")
	}
	return data, nil
}

func decodeRoom(data []byte) (*game.Room, error) {
	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDataIntegrity, "decode room")
	}
	return &room, nil
}

func roomNotFound(id string) error {
	return apperrors.New(apperrors.ErrRoomNotFound, fmt.Sprintf("room %s not found", id))
}
