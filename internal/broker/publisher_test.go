package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject: subject, data: data})
	return nil
}

func testRoom() *game.Room {
	room := game.NewRoom("ABC123", "leader", time.Now())
	room.ID = "1"
	room.Revision = 3
	return room
}

func TestRoomPublisher_Subject(t *testing.T) {
	assert.Equal(t, "mafia.rooms.ABC123", NewRoomPublisher(&fakeConn{}, "").Subject("ABC123"))
	assert.Equal(t, "game.rooms.ABC123", NewRoomPublisher(&fakeConn{}, "game.rooms.").Subject("ABC123"))
}

func TestRoomPublisher_RoomUpdated(t *testing.T) {
	conn := &fakeConn{}
	pub := NewRoomPublisher(conn, "mafia.rooms")

	require.NoError(t, pub.RoomUpdated(context.Background(), "start", testRoom()))
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "mafia.rooms.ABC123", conn.msgs[0].subject)

	var evt RoomEvent
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &evt))
	assert.Equal(t, "room_update", evt.Type)
	assert.Equal(t, "start", evt.Command)
	assert.Equal(t, int64(3), evt.Revision)
	require.NotNil(t, evt.Room)
	assert.Equal(t, "leader", evt.Room.LeaderID)
}

func TestRoomPublisher_PublishError(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	pub := NewRoomPublisher(conn, "")

	err := pub.RoomUpdated(context.Background(), "join", testRoom())
	assert.True(t, apperrors.Is(err, apperrors.ErrBrokerPublish))
}

func TestRoomPublisher_CanceledContext(t *testing.T) {
	conn := &fakeConn{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRoomPublisher(conn, "").RoomUpdated(ctx, "join", testRoom())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, conn.msgs)
}
