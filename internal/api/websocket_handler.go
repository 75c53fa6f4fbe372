package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/mafia-game/internal/config"
	"github.com/wfunc/mafia-game/internal/middleware"
	ws "github.com/wfunc/mafia-game/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				// 跨域由前端部署决定
				return true
			},
		},
		logger: logger,
	}
}

// RoomWebSocket 房间订阅连接，?code=&playerId=
func (h *WebSocketHandler) RoomWebSocket(c *gin.Context) {
	code := c.Query("code")
	playerID := c.Query("playerId")
	identity, _ := middleware.GetPlayerID(c)
	if playerID != "" && !authorize(c, playerID) {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.String("room_code", code),
			zap.Error(err))
		return
	}

	client := h.hub.Attach(conn, code, playerID, identity)
	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.String("room_code", code),
		zap.String("player_id", playerID),
		zap.Bool("authenticated", identity != ""))
}
