package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
)

// memoryRoomRepo 内存房间仓储（测试和单机调试使用）
type memoryRoomRepo struct {
	mu     sync.RWMutex
	rooms  map[string]*game.Room
	byCode map[string]string
}

// NewMemoryRoomRepository 创建内存房间仓储
func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoomRepo{
		rooms:  make(map[string]*game.Room),
		byCode: make(map[string]string),
	}
}

// FindByCode 按房间码查找
func (r *memoryRoomRepo) FindByCode(ctx context.Context, code string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, nil
	}
	return r.rooms[id].Clone(), nil
}

// Get 按ID读取
func (r *memoryRoomRepo) Get(ctx context.Context, id string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, roomNotFound(id)
	}
	return room.Clone(), nil
}

// Insert 写入新房间
func (r *memoryRoomRepo) Insert(ctx context.Context, room *game.Room) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[room.Code]; exists {
		return "", apperrors.Newf(apperrors.ErrAlreadyExists, "room code %s already in use", room.Code)
	}

	stored := room.Clone()
	stored.ID = uuid.New().String()
	stored.Revision = 1
	r.rooms[stored.ID] = stored
	r.byCode[stored.Code] = stored.ID
	return stored.ID, nil
}

// Patch 条件更新
func (r *memoryRoomRepo) Patch(ctx context.Context, id string, expectedRevision int64, patch *game.Patch) (*game.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.rooms[id]
	if !ok {
		return nil, roomNotFound(id)
	}
	next, err := applyPatch(current, expectedRevision, patch, time.Now())
	if err != nil {
		return nil, err
	}
	r.rooms[id] = next
	return next.Clone(), nil
}
