package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wfunc/mafia-game/internal/api"
	"github.com/wfunc/mafia-game/internal/broker"
	"github.com/wfunc/mafia-game/internal/config"
	"github.com/wfunc/mafia-game/internal/database"
	"github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/logger"
	"github.com/wfunc/mafia-game/internal/repository"
	"github.com/wfunc/mafia-game/internal/service"
	"github.com/wfunc/mafia-game/internal/utils"
	ws "github.com/wfunc/mafia-game/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务组件
	redis      *redis.Client
	broker     *broker.Client
	hub        *ws.Hub
	services   *service.Services
	httpServer *http.Server

	// 关闭控制
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	setupSystem(&cfg.System)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 初始化组件并启动HTTP服务
func (s *Server) Start() error {
	s.logger.Info("正在启动狼人杀房间服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("repository", s.cfg.Repository.Backend),
	)

	manager, err := s.initRepository()
	if err != nil {
		return err
	}

	// 房间更新的推送目标
	s.hub = ws.NewHub(ws.HubConfig{
		PingInterval:   s.cfg.WebSocket.PingInterval,
		PongTimeout:    s.cfg.WebSocket.PongTimeout,
		WriteTimeout:   s.cfg.WebSocket.WriteTimeout,
		MaxMessageSize: s.cfg.WebSocket.MaxMessageSize,
	}, nil, logger.GetModuleLogger("websocket"))
	notifiers := []service.Notifier{s.hub}

	if s.cfg.NATS.Enabled {
		client, err := broker.NewClient(s.cfg.NATS)
		if err != nil {
			return err
		}
		s.broker = client
		notifiers = append(notifiers, broker.NewRoomPublisher(client.Conn(), s.cfg.NATS.SubjectPrefix))
	}

	s.services, err = service.NewServices(manager.Rooms(), &s.cfg.Game, s.logger, notifiers...)
	if err != nil {
		return err
	}
	s.hub.SetRoomSource(s.services.Rooms)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	if err := s.startHTTPServer(); err != nil {
		return err
	}

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.httpServer.Addr),
		zap.String("websocket", s.cfg.WebSocket.Path))
	return nil
}

// initRepository 按配置选择房间存储后端
func (s *Server) initRepository() (*repository.Manager, error) {
	opts := repository.ManagerOptions{Backend: s.cfg.Repository.Backend}

	switch s.cfg.Repository.Backend {
	case repository.BackendDatabase:
		if err := database.Init(&s.cfg.Database); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
		}
		if s.cfg.Database.AutoMigrate {
			s.logger.Info("执行数据库自动迁移...")
			if err := database.AutoMigrate(); err != nil {
				return nil, errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
			}
		}
		opts.DB = database.GetDB()

	case repository.BackendRedis:
		s.redis = repository.NewRedisClient(s.cfg.Redis)
		ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()
		if err := repository.PingRedis(ctx, s.redis); err != nil {
			return nil, err
		}
		opts.Redis = s.redis
		opts.KeyPrefix = s.cfg.Redis.KeyPrefix
		opts.RoomTTL = s.cfg.Redis.RoomTTL

	case repository.BackendMemory:
		s.logger.Warn("使用内存存储，重启后房间数据丢失")
	}

	return repository.NewManager(opts)
}

// startHTTPServer 启动HTTP服务
func (s *Server) startHTTPServer() error {
	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtManager := utils.NewJWTManager(
		s.cfg.Security.JWT.Secret,
		s.cfg.Security.JWT.Issuer,
		time.Duration(s.cfg.Security.JWT.ExpireHours)*time.Hour,
	)

	router := api.NewRouter(api.RouterOptions{
		Services:      s.services,
		Hub:           s.hub,
		JWT:           jwtManager,
		WebSocket:     s.cfg.WebSocket,
		EnableSwagger: s.cfg.Server.EnableSwagger,
		Checks:        s.healthChecks(),
		Logger:        logger.GetModuleLogger("api"),
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.cancel()
		}
	}()
	return nil
}

// healthChecks 当前后端的健康检查项
func (s *Server) healthChecks() map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{}
	if db := database.GetDB(); db != nil {
		checks["database"] = func(ctx context.Context) error {
			return database.Ping(db)
		}
	}
	if s.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return repository.PingRedis(ctx, s.redis)
		}
	}
	if s.broker != nil {
		checks["nats"] = func(ctx context.Context) error {
			if !s.broker.IsConnected() {
				return errors.New(errors.ErrBrokerConnect)
			}
			return nil
		}
	}
	return checks
}

// WaitForShutdown 等待退出信号或服务异常
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
		}
	}

	// 取消主上下文，Hub随之关闭所有连接
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()
	return nil
}

// closeComponents 关闭外部连接
func (s *Server) closeComponents() {
	if s.broker != nil {
		s.broker.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("关闭Redis失败", zap.Error(err))
		}
	}
	if database.GetDB() != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}
}

// reloadConfig 热更新日志级别
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置已更新",
		zap.String("log_level", newCfg.Log.Level))
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

func printVersion() {
	fmt.Printf("狼人杀房间服务\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
}
