package broker

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/wfunc/mafia-game/internal/config"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/logger"
	"go.uber.org/zap"
)

// Client NATS 客户端封装
type Client struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewClient 创建 NATS 客户端
func NewClient(cfg config.NATSConfig) (*Client, error) {
	log := logger.GetModuleLogger("broker")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS连接断开", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS重连成功", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS连接已关闭")
		}),
		nats.Timeout(10 * time.Second),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrBrokerConnect, cfg.URL)
	}

	log.Info("NATS连接成功", zap.String("url", conn.ConnectedUrl()))
	return &Client{
		conn:   conn,
		logger: log,
	}, nil
}

// Conn 返回底层 NATS 连接
func (c *Client) Conn() *nats.Conn {
	return c.conn
}

// Close 排空并关闭连接
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("NATS排空失败", zap.Error(err))
		c.conn.Close()
	}
}

// IsConnected 检查连接状态
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
