package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/logger"
	"go.uber.org/zap"
)

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 房间消息
	MessageTypeSubscribe   = "subscribe"
	MessageTypeSubscribed  = "subscribed"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeRoomUpdate  = "room_update"
)

// 订阅时推送的快照使用的命令名
const commandSnapshot = "snapshot"

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`
	RoomCode  string          `json:"roomCode,omitempty"`
	PlayerID  string          `json:"playerId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"` // 毫秒
}

// RoomUpdate room_update 消息体
type RoomUpdate struct {
	Command string     `json:"command"`
	Room    *game.Room `json:"room"`
}

// RoomSource 订阅时加载房间快照
type RoomSource interface {
	GetRoomView(ctx context.Context, code, viewerID string) (*game.Room, error)
}

// HubConfig Hub参数
type HubConfig struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (c *HubConfig) applyDefaults() {
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongTimeout {
		c.PingInterval = (c.PongTimeout * 9) / 10
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 8 * 1024
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
}

type subscription struct {
	client   *Client
	roomCode string
	playerID string
}

// Hub 房间订阅中心，按观察者身份裁剪后推送房间状态
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client // 房间码 -> 客户端ID -> 客户端

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscription
	unsubscribe chan *Client
	broadcast   chan *Message

	source RoomSource
	cfg    HubConfig
	done   chan struct{}
	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(cfg HubConfig, source RoomSource, log *zap.Logger) *Hub {
	cfg.applyDefaults()
	if log == nil {
		log = logger.GetModuleLogger("websocket")
	}
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *subscription),
		unsubscribe: make(chan *Client),
		broadcast:   make(chan *Message, 16),
		source:      source,
		cfg:         cfg,
		done:        make(chan struct{}),
		logger:      log,
	}
}

// SetRoomSource 设置快照来源（服务创建晚于Hub时使用）
func (h *Hub) SetRoomSource(source RoomSource) {
	h.mu.Lock()
	h.source = source
	h.mu.Unlock()
}

// Run 运行Hub直到ctx取消
func (h *Hub) Run(ctx context.Context) {
	// 启动心跳
	go h.runHeartbeat(ctx)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case sub := <-h.subscribe:
			h.subscribeClient(sub)

		case client := <-h.unsubscribe:
			h.mu.Lock()
			h.leaveRoom(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// shutdown 关闭所有客户端
func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)
	h.logger.Info("WebSocket Hub已停止")
}

// registerClient 注册客户端，连接时携带房间码的直接订阅
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	if client.roomCode != "" {
		h.joinRoom(client, client.roomCode, client.playerID)
	}
	h.mu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.String("room_code", client.roomCode),
		zap.String("player_id", client.playerID))

	h.SendToClient(client.ID, &Message{Type: MessageTypeConnected, RoomCode: client.roomCode, PlayerID: client.playerID})
	if client.roomCode != "" {
		go h.sendSnapshot(client.ID, client.roomCode, client.playerID)
	}
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		h.leaveRoom(client)
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.mu.Unlock()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.String("player_id", client.identity))
}

// subscribeClient 切换客户端订阅的房间
func (h *Hub) subscribeClient(sub *subscription) {
	h.mu.Lock()
	if _, ok := h.clients[sub.client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	h.leaveRoom(sub.client)
	h.joinRoom(sub.client, sub.roomCode, sub.playerID)
	h.mu.Unlock()

	h.SendToClient(sub.client.ID, &Message{
		Type:     MessageTypeSubscribed,
		RoomCode: sub.roomCode,
		PlayerID: sub.playerID,
	})
	go h.sendSnapshot(sub.client.ID, sub.roomCode, sub.playerID)
}

// joinRoom 调用方持有写锁
func (h *Hub) joinRoom(client *Client, code, playerID string) {
	client.roomCode = code
	client.playerID = playerID
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[code] = members
	}
	members[client.ID] = client
}

// leaveRoom 调用方持有写锁
func (h *Hub) leaveRoom(client *Client) {
	if client.roomCode == "" {
		return
	}
	if members, ok := h.rooms[client.roomCode]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, client.roomCode)
		}
	}
	client.roomCode = ""
	client.playerID = ""
}

// sendSnapshot 推送订阅时的房间快照，客户端按 revision 丢弃旧版本
func (h *Hub) sendSnapshot(clientID, code, playerID string) {
	h.mu.RLock()
	source := h.source
	h.mu.RUnlock()
	if source == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.WriteTimeout)
	defer cancel()

	view, err := source.GetRoomView(ctx, code, playerID)
	if err != nil {
		h.sendError(clientID, err.Error())
		return
	}
	data, err := json.Marshal(RoomUpdate{Command: commandSnapshot, Room: view})
	if err != nil {
		h.logger.Error("序列化房间快照失败", zap.Error(err))
		return
	}
	h.SendToClient(clientID, &Message{Type: MessageTypeRoomUpdate, RoomCode: code, PlayerID: playerID, Data: data})
}

// RoomUpdated 向房间内每个订阅者推送各自视角的房间状态
func (h *Hub) RoomUpdated(ctx context.Context, command string, room *game.Room) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[room.Code]
	for _, client := range members {
		data, err := json.Marshal(RoomUpdate{Command: command, Room: game.ViewFor(room, client.playerID)})
		if err != nil {
			return err
		}
		payload, err := encode(&Message{
			Type:     MessageTypeRoomUpdate,
			RoomCode: room.Code,
			PlayerID: client.playerID,
			Data:     data,
		})
		if err != nil {
			return err
		}
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("客户端发送缓冲区满，丢弃房间更新",
				zap.String("client_id", client.ID),
				zap.String("room_code", room.Code),
				zap.Int64("revision", room.Revision))
		}
	}

	if len(members) > 0 {
		logger.LogWebSocketMessage("out", MessageTypeRoomUpdate, map[string]interface{}{
			"room_code":   room.Code,
			"revision":    room.Revision,
			"subscribers": len(members),
		})
	}
	return nil
}

// broadcastMessage 广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := encode(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
		}
	}
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := encode(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}
	select {
	case client.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (h *Hub) sendError(clientID, message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	h.SendToClient(clientID, &Message{Type: MessageTypeError, Data: data})
}

// RoomSubscribers 房间订阅数
func (h *Hub) RoomSubscribers(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// runHeartbeat 定时广播应用层心跳
func (h *Hub) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case h.broadcast <- &Message{Type: MessageTypePing}:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

// Attach 接管已升级的连接并启动读写协程
func (h *Hub) Attach(conn *websocket.Conn, roomCode, playerID, identity string) *Client {
	client := newClient(h, conn, identity)
	client.roomCode = normalizeCode(roomCode)
	client.playerID = playerID
	if identity != "" {
		client.playerID = identity
	}
	if client.roomCode == "" {
		client.playerID = ""
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()
	return client
}

func encode(message *Message) ([]byte, error) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(message)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
