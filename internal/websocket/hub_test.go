package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
	"go.uber.org/zap"
)

type stubSource struct {
	room *game.Room
}

func (s *stubSource) GetRoomView(ctx context.Context, code, viewerID string) (*game.Room, error) {
	if s.room == nil || s.room.Code != code {
		return nil, apperrors.New(apperrors.ErrRoomNotFound)
	}
	return game.ViewFor(s.room, viewerID), nil
}

func alive() *bool {
	b := true
	return &b
}

func activeRoom() *game.Room {
	room := game.NewRoom("ROOM01", "host", time.Now())
	room.ID = "1"
	room.Revision = 3
	room.Status = game.StatusActive
	room.Phase = game.PhaseDay
	room.Narrator = &game.Player{ID: "host", Name: "Host"}
	room.Players = []game.Player{
		{ID: "m1", Name: "Mallory", Role: game.RoleMafia, IsAlive: alive()},
		{ID: "c1", Name: "Carol", Role: game.RoleCitizen, IsAlive: alive()},
		{ID: "d1", Name: "Dave", Role: game.RoleDoctor, IsAlive: alive()},
	}
	return room
}

// 启动Hub和测试服务器
func startHub(t *testing.T, source RoomSource) (*Hub, *httptest.Server) {
	hub := NewHub(HubConfig{PingInterval: time.Second, PongTimeout: 5 * time.Second}, source, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		q := r.URL.Query()
		hub.Attach(conn, q.Get("code"), q.Get("playerId"), q.Get("identity"))
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// 读取下一条非心跳消息
func readMessage(t *testing.T, conn *websocket.Conn) Message {
	for {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type != MessageTypePing {
			return msg
		}
	}
}

func readUpdate(t *testing.T, conn *websocket.Conn) RoomUpdate {
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeRoomUpdate, msg.Type)
	var update RoomUpdate
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	return update
}

func roleOf(room *game.Room, id string) game.Role {
	p, _ := room.FindPlayer(id)
	return p.Role
}

func TestHub_RoomUpdatedPerViewer(t *testing.T) {
	hub, server := startHub(t, nil)
	room := activeRoom()

	citizen := dial(t, server, "code=room01&playerId=c1")
	mafia := dial(t, server, "code=ROOM01&playerId=m1")
	host := dial(t, server, "code=ROOM01&playerId=host")
	for _, conn := range []*websocket.Conn{citizen, mafia, host} {
		msg := readMessage(t, conn)
		require.Equal(t, MessageTypeConnected, msg.Type)
		assert.Equal(t, "ROOM01", msg.RoomCode)
	}
	require.Equal(t, 3, hub.RoomSubscribers("ROOM01"))

	require.NoError(t, hub.RoomUpdated(context.Background(), "castVote", room))

	update := readUpdate(t, citizen)
	assert.Equal(t, "castVote", update.Command)
	assert.Equal(t, int64(3), update.Room.Revision)
	assert.Equal(t, game.RoleCitizen, roleOf(update.Room, "c1"))
	assert.Empty(t, roleOf(update.Room, "m1"))

	update = readUpdate(t, mafia)
	assert.Equal(t, game.RoleMafia, roleOf(update.Room, "m1"))
	assert.Empty(t, roleOf(update.Room, "d1"))

	update = readUpdate(t, host)
	assert.Equal(t, game.RoleDoctor, roleOf(update.Room, "d1"))
}

func TestHub_SubscribeSendsSnapshot(t *testing.T) {
	room := activeRoom()
	hub, server := startHub(t, &stubSource{room: room})

	conn := dial(t, server, "")
	assert.Equal(t, MessageTypeConnected, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeSubscribe, RoomCode: "room01", PlayerID: "c1"}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSubscribed, msg.Type)
	assert.Equal(t, "ROOM01", msg.RoomCode)
	assert.Equal(t, "c1", msg.PlayerID)

	update := readUpdate(t, conn)
	assert.Equal(t, commandSnapshot, update.Command)
	assert.Empty(t, roleOf(update.Room, "m1"))
	assert.Equal(t, 1, hub.RoomSubscribers("ROOM01"))

	// 退订后不再收到更新
	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeUnsubscribe}))
	assert.Eventually(t, func() bool { return hub.RoomSubscribers("ROOM01") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_IdentityOverridesPlayerID(t *testing.T) {
	hub, server := startHub(t, nil)

	conn := dial(t, server, "code=ROOM01&playerId=host&identity=c1")
	msg := readMessage(t, conn)
	assert.Equal(t, "c1", msg.PlayerID)

	require.NoError(t, hub.RoomUpdated(context.Background(), "advancePhase", activeRoom()))
	update := readUpdate(t, conn)
	// 令牌身份是普通玩家，看不到其他人的身份
	assert.Empty(t, roleOf(update.Room, "m1"))
}

func TestHub_UnknownRoomSnapshotError(t *testing.T) {
	_, server := startHub(t, &stubSource{})

	conn := dial(t, server, "code=NOPE00&playerId=c1")
	assert.Equal(t, MessageTypeConnected, readMessage(t, conn).Type)
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
}

func TestHub_InvalidMessageClosesConnection(t *testing.T) {
	hub, server := startHub(t, nil)

	conn := dial(t, server, "")
	readMessage(t, conn)
	require.Equal(t, 1, hub.GetOnlineCount())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
	assert.Eventually(t, func() bool { return hub.GetOnlineCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DisconnectLeavesRoom(t *testing.T) {
	hub, server := startHub(t, nil)

	conn := dial(t, server, "code=ROOM01&playerId=c1")
	readMessage(t, conn)
	require.Equal(t, 1, hub.RoomSubscribers("ROOM01"))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSubscribers("ROOM01") == 0 }, 2*time.Second, 10*time.Millisecond)

	// 无订阅者时推送是空操作
	assert.NoError(t, hub.RoomUpdated(context.Background(), "joinRoom", activeRoom()))
}

func TestHubConfigDefaults(t *testing.T) {
	cfg := HubConfig{PingInterval: time.Minute, PongTimeout: 10 * time.Second}
	cfg.applyDefaults()
	assert.Equal(t, 9*time.Second, cfg.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, int64(8*1024), cfg.MaxMessageSize)
	assert.Equal(t, 64, cfg.SendBuffer)
}
