package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/mafia-game/internal/logger"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
)

// Client WebSocket客户端
type Client struct {
	ID       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity string // 令牌中的玩家ID，为空表示未认证

	// 以下字段只在Hub持有写锁时修改
	roomCode string
	playerID string
}

func newClient(hub *Hub, conn *websocket.Conn, identity string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.cfg.SendBuffer),
		identity: identity,
	}
}

// readPump 读取消息，退出后由 writePump 发完剩余消息再关闭连接
func (c *Client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}

		if !c.handleMessage(message) {
			return
		}
	}
}

// writePump 写入消息，每条消息独立成帧
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				// Hub关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端消息，返回 false 时断开连接
func (c *Client) handleMessage(data []byte) bool {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		c.hub.logger.Warn("无效的WebSocket消息", zap.String("client_id", c.ID))
		c.hub.sendError(c.ID, "消息格式错误")
		return false
	}
	logger.LogWebSocketMessage("in", msg.Type, msg.RoomCode)

	switch msg.Type {
	case MessageTypePong, MessageTypePing:
		// 心跳

	case MessageTypeSubscribe:
		code := normalizeCode(msg.RoomCode)
		if code == "" {
			c.hub.sendError(c.ID, "roomCode is required")
			return true
		}
		playerID := msg.PlayerID
		if c.identity != "" {
			// 已认证连接只能以自己的身份订阅
			playerID = c.identity
		}
		select {
		case c.hub.subscribe <- &subscription{client: c, roomCode: code, playerID: playerID}:
		case <-c.hub.done:
			return false
		}

	case MessageTypeUnsubscribe:
		select {
		case c.hub.unsubscribe <- c:
		case <-c.hub.done:
			return false
		}

	default:
		c.hub.sendError(c.ID, "不支持的消息类型: "+msg.Type)
	}
	return true
}

// leave 通知Hub注销
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}
