package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/mafia-game/internal/config"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/middleware"
	"github.com/wfunc/mafia-game/internal/service"
	"github.com/wfunc/mafia-game/internal/utils"
	ws "github.com/wfunc/mafia-game/internal/websocket"
	"go.uber.org/zap"
)

// HealthCheck 依赖健康检查
type HealthCheck func(ctx context.Context) error

// RouterOptions 路由器依赖
type RouterOptions struct {
	Services      *service.Services
	Hub           *ws.Hub
	JWT           *utils.JWTManager
	WebSocket     config.WebSocketConfig
	EnableSwagger bool
	Checks        map[string]HealthCheck
	Logger        *zap.Logger
}

// Router API路由器
type Router struct {
	engine   *gin.Engine
	opts     RouterOptions
	rooms    *RoomHandler
	identity *IdentityHandler
	ws       *WebSocketHandler
	auth     *middleware.AuthMiddleware
	log      *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(opts RouterOptions) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WebSocket.Path == "" {
		opts.WebSocket.Path = "/ws"
	}

	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggerMiddleware())

	router := &Router{
		engine:   engine,
		opts:     opts,
		rooms:    NewRoomHandler(opts.Services.Rooms),
		identity: NewIdentityHandler(opts.JWT),
		auth:     middleware.NewAuthMiddleware(opts.JWT),
		log:      opts.Logger,
	}
	if opts.Hub != nil {
		router.ws = NewWebSocketHandler(opts.Hub, opts.WebSocket, opts.Logger.Named("websocket"))
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 文档
	registerOpenAPIRoutes(r.engine)
	if r.opts.EnableSwagger {
		registerSwaggerRoutes(r.engine)
	}

	// API v1路由组，令牌可选
	v1 := r.engine.Group("/api/v1")
	v1.Use(r.auth.OptionalAuth())
	{
		v1.POST("/identity", r.identity.Issue)

		rooms := v1.Group("/rooms")
		{
			rooms.POST("", r.rooms.CreateRoom)
			rooms.GET("/:code", r.rooms.GetRoom)
			rooms.GET("/:code/view", r.rooms.GetRoomView)
			rooms.POST("/:code/join", r.rooms.JoinRoom)
			rooms.POST("/:code/leader", r.rooms.TransferLeadership)
			rooms.DELETE("/:code/players/:playerId", r.rooms.RemovePlayer)

			// 游戏流程
			rooms.POST("/:code/start", r.rooms.StartGame)
			rooms.POST("/:code/phase", r.rooms.AdvancePhase)
			rooms.POST("/:code/votes", r.rooms.CastVote)
			rooms.POST("/:code/votes/execute", r.rooms.ExecuteVotes)
			rooms.POST("/:code/night-actions", r.rooms.PerformNightAction)
			rooms.POST("/:code/end", r.rooms.EndGame)
			rooms.GET("/:code/investigation", r.rooms.GetInvestigation)
		}
	}

	// WebSocket路由
	if r.ws != nil {
		r.engine.GET(r.opts.WebSocket.Path, r.auth.OptionalAuth(), r.ws.RoomWebSocket)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.New(apperrors.ErrNotFound, "route not found"))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	components := gin.H{}
	healthy := true
	for name, check := range r.opts.Checks {
		if err := check(ctx); err != nil {
			healthy = false
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}
	if r.opts.Hub != nil {
		components["websocket_clients"] = r.opts.Hub.GetOnlineCount()
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "unhealthy",
			"components": components,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"message":    "服务运行正常",
		"components": components,
	})
}

// GetEngine 获取Gin引擎（用于测试和http.Server）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
