package broker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/logger"
)

// DefaultSubjectPrefix 默认主题前缀
const DefaultSubjectPrefix = "mafia.rooms"

// Conn 发布所需的最小连接接口，*nats.Conn 满足该接口
type Conn interface {
	Publish(subject string, data []byte) error
}

// RoomEvent 房间变更消息
type RoomEvent struct {
	Type      string     `json:"type"`
	Command   string     `json:"command"`
	Code      string     `json:"code"`
	Revision  int64      `json:"revision"`
	Room      *game.Room `json:"room"`
	Timestamp int64      `json:"timestamp"`
}

// RoomPublisher 房间变更发布器
type RoomPublisher struct {
	conn   Conn
	prefix string
}

// NewRoomPublisher 创建房间变更发布器
func NewRoomPublisher(conn Conn, prefix string) *RoomPublisher {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &RoomPublisher{
		conn:   conn,
		prefix: prefix,
	}
}

// Subject 房间对应的主题
func (p *RoomPublisher) Subject(code string) string {
	return p.prefix + "." + code
}

// RoomUpdated 发布完整房间状态
func (p *RoomPublisher) RoomUpdated(ctx context.Context, command string, room *game.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := p.Subject(room.Code)
	data, err := json.Marshal(RoomEvent{
		Type:      "room_update",
		Command:   command,
		Code:      room.Code,
		Revision:  room.Revision,
		Room:      room,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}

	err = p.conn.Publish(subject, data)
	logger.LogBrokerMessage(subject, len(data), err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrBrokerPublish, subject)
	}
	return nil
}
