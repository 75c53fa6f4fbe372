package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
)

// 各后端共用的仓储行为测试
func runRoomRepositoryContract(t *testing.T, newRepo func(t *testing.T) RoomRepository) {
	ctx := context.Background()

	t.Run("插入后按码和ID读取", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Insert(ctx, CreateTestRoom("ABC123", "leader"))
		require.NoError(t, err)
		require.NotEmpty(t, id)

		byCode, err := repo.FindByCode(ctx, "ABC123")
		require.NoError(t, err)
		require.NotNil(t, byCode)
		assert.Equal(t, id, byCode.ID)
		assert.Equal(t, int64(1), byCode.Revision)
		assert.Equal(t, "leader", byCode.Narrator.ID)
		assert.Len(t, byCode.Players, 2)

		byID, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", byID.Code)
		assert.Equal(t, game.StatusWaiting, byID.Status)
	})

	t.Run("不存在的房间码", func(t *testing.T) {
		repo := newRepo(t)
		room, err := repo.FindByCode(ctx, "ZZZZZZ")
		assert.NoError(t, err)
		assert.Nil(t, room)
	})

	t.Run("不存在的ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "999999")
		assert.True(t, apperrors.Is(err, apperrors.ErrRoomNotFound))
	})

	t.Run("房间码冲突", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(ctx, CreateTestRoom("DUP001", "a"))
		require.NoError(t, err)
		_, err = repo.Insert(ctx, CreateTestRoom("DUP001", "b"))
		assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists), "got %v", err)
	})

	t.Run("条件更新递增版本", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Insert(ctx, CreateTestRoom("REV001", "leader"))
		require.NoError(t, err)

		status := game.StatusActive
		phase := game.PhaseNight
		next, err := repo.Patch(ctx, id, 1, &game.Patch{
			Status:        &status,
			Phase:         &phase,
			AppendHistory: []game.HistoryEvent{{Timestamp: 1, Event: game.EventGameStarted}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), next.Revision)
		assert.Equal(t, game.StatusActive, next.Status)

		stored, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.Revision)
		assert.Equal(t, game.PhaseNight, stored.Phase)
		require.Len(t, stored.History, 1)
		assert.Equal(t, game.EventGameStarted, stored.History[0].Event)
	})

	t.Run("过期版本被拒绝", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Insert(ctx, CreateTestRoom("REV002", "leader"))
		require.NoError(t, err)

		leader := "p1"
		_, err = repo.Patch(ctx, id, 1, &game.Patch{LeaderID: &leader})
		require.NoError(t, err)

		other := "p2"
		_, err = repo.Patch(ctx, id, 1, &game.Patch{LeaderID: &other})
		assert.True(t, apperrors.Is(err, apperrors.ErrRevisionConflict), "got %v", err)

		stored, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "p1", stored.LeaderID)
		assert.Equal(t, int64(2), stored.Revision)
	})

	t.Run("更新不存在的房间", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Patch(ctx, "424242", 1, &game.Patch{})
		assert.True(t, apperrors.Is(err, apperrors.ErrRoomNotFound), "got %v", err)
	})
}

func TestMemoryRoomRepository(t *testing.T) {
	runRoomRepositoryContract(t, func(t *testing.T) RoomRepository {
		return NewMemoryRoomRepository()
	})
}

func TestGormRoomRepository(t *testing.T) {
	runRoomRepositoryContract(t, func(t *testing.T) RoomRepository {
		return NewRoomRepository(TestDB(t))
	})
}

func TestRedisRoomRepository(t *testing.T) {
	addr := os.Getenv("MAFIA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAFIA_TEST_REDIS_ADDR 未设置，跳过 Redis 测试")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := PingRedis(ctx, client); err != nil {
		t.Skipf("Redis 不可用: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	runRoomRepositoryContract(t, func(t *testing.T) RoomRepository {
		prefix := "mafia-test-" + time.Now().Format("150405.000000000")
		t.Cleanup(func() {
			keys, _ := client.Keys(context.Background(), prefix+":*").Result()
			if len(keys) > 0 {
				client.Del(context.Background(), keys...)
			}
		})
		return NewRedisRoomRepository(client, prefix, time.Minute)
	})
}

func TestGormRoomRepository_Concurrent(t *testing.T) {
	repo := NewRoomRepository(TestDB(t))
	ctx := context.Background()
	id, err := repo.Insert(ctx, CreateTestRoom("RACE01", "leader"))
	require.NoError(t, err)

	// 两个写入者持有同一版本，只能成功一个
	results := make(chan error, 2)
	for _, leader := range []string{"p1", "p2"} {
		leader := leader
		go func() {
			_, err := repo.Patch(ctx, id, 1, &game.Patch{LeaderID: &leader})
			results <- err
		}()
	}

	var ok, conflicts int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			ok++
		case apperrors.Is(err, apperrors.ErrRevisionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestManager(t *testing.T) {
	_, err := NewManager(ManagerOptions{Backend: "unknown"})
	assert.Error(t, err)

	_, err = NewManager(ManagerOptions{Backend: BackendDatabase})
	assert.Error(t, err)

	_, err = NewManager(ManagerOptions{Backend: BackendRedis})
	assert.Error(t, err)

	m, err := NewManager(ManagerOptions{Backend: BackendMemory})
	require.NoError(t, err)
	assert.Same(t, m.Rooms(), m.Rooms())
	assert.Equal(t, BackendMemory, m.Backend())

	m, err = NewManager(ManagerOptions{DB: TestDB(t)})
	require.NoError(t, err)
	assert.Equal(t, BackendDatabase, m.Backend())
	assert.NotNil(t, m.GetDB())
}
