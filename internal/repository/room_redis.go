package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wfunc/mafia-game/internal/config"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/logger"
	"go.uber.org/zap"
)

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})
}

// PingRedis 检查 Redis 连通性
func PingRedis(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCacheConnect)
	}
	return nil
}

// redisRoomRepo 基于 Redis 的房间仓储
//
// Key:
//
//	{prefix}:room:{id}         房间JSON
//	{prefix}:room:code:{code}  房间码 -> 房间ID
type redisRoomRepo struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRoomRepository 创建 Redis 房间仓储，ttl 为 0 时不过期
func NewRedisRoomRepository(client *redis.Client, prefix string, ttl time.Duration) RoomRepository {
	if prefix == "" {
		prefix = "mafia"
	}
	return &redisRoomRepo{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *redisRoomRepo) roomKey(id string) string {
	return fmt.Sprintf("%s:room:%s", r.prefix, id)
}

func (r *redisRoomRepo) codeKey(code string) string {
	return fmt.Sprintf("%s:room:code:%s", r.prefix, code)
}

// FindByCode 按房间码查找
func (r *redisRoomRepo) FindByCode(ctx context.Context, code string) (*game.Room, error) {
	id, err := r.client.Get(ctx, r.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCacheOperation, "get room code")
	}

	room, err := r.Get(ctx, id)
	if apperrors.GetCode(err) == apperrors.ErrRoomNotFound {
		// 房间已过期，索引残留
		return nil, nil
	}
	return room, err
}

// Get 按ID读取
func (r *redisRoomRepo) Get(ctx context.Context, id string) (*game.Room, error) {
	data, err := r.client.Get(ctx, r.roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, roomNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCacheOperation, "get room")
	}
	return decodeRoom(data)
}

// Insert 写入新房间，房间码通过 SETNX 占位
func (r *redisRoomRepo) Insert(ctx context.Context, room *game.Room) (string, error) {
	stored := room.Clone()
	stored.ID = uuid.New().String()
	stored.Revision = 1

	doc, err := encodeRoom(stored)
	if err != nil {
		return "", err
	}

	ok, err := r.client.SetNX(ctx, r.codeKey(stored.Code), stored.ID, r.ttl).Result()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCacheOperation, "reserve room code")
	}
	if !ok {
		return "", apperrors.Newf(apperrors.ErrAlreadyExists, "room code %s already in use", stored.Code)
	}

	if err := r.client.Set(ctx, r.roomKey(stored.ID), doc, r.ttl).Err(); err != nil {
		// 释放占位，忽略释放失败
		if delErr := r.client.Del(ctx, r.codeKey(stored.Code)).Err(); delErr != nil {
			logger.Warn("释放房间码失败", zap.String("code", stored.Code), zap.Error(delErr))
		}
		return "", apperrors.Wrap(err, apperrors.ErrCacheOperation, "store room")
	}
	return stored.ID, nil
}

// Patch 使用 WATCH/MULTI 实现乐观并发
func (r *redisRoomRepo) Patch(ctx context.Context, id string, expectedRevision int64, patch *game.Patch) (*game.Room, error) {
	key := r.roomKey(id)
	var result *game.Room

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return roomNotFound(id)
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCacheOperation, "get room")
		}

		current, err := decodeRoom(data)
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

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, r.ttl)
			if r.ttl > 0 {
				pipe.Expire(ctx, r.codeKey(next.Code), r.ttl)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}, key)

	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, redis.TxFailedErr):
		return nil, apperrors.Newf(apperrors.ErrRevisionConflict, "room %s was modified concurrently", id)
	}
	if _, ok := apperrors.As(err); ok {
		return nil, err
	}
	return nil, apperrors.Wrap(err, apperrors.ErrCacheOperation, "patch room")
}
