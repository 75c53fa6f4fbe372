package service

import (
	"context"
	"strings"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/logger"
	"github.com/wfunc/mafia-game/internal/repository"
	"go.uber.org/zap"
)

// 创建房间时使用的伪命令名
const cmdCreate = "create"

// RoomOptions 房间服务参数
type RoomOptions struct {
	CodeLength      int
	MaxCodeAttempts int
}

// roomService 房间服务实现
type roomService struct {
	repo      repository.RoomRepository
	machine   *game.Machine
	notifiers []Notifier
	opts      RoomOptions
	logger    *zap.Logger
}

// NewRoomService 创建房间服务
func NewRoomService(
	repo repository.RoomRepository,
	machine *game.Machine,
	opts RoomOptions,
	log *zap.Logger,
	notifiers ...Notifier,
) RoomService {
	if opts.CodeLength <= 0 {
		opts.CodeLength = game.DefaultRoomCodeLength
	}
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &roomService{
		repo:      repo,
		machine:   machine,
		notifiers: notifiers,
		opts:      opts,
		logger:    log,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom 生成唯一房间码并写入空房间
func (s *roomService) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*game.Room, error) {
	leaderID := strings.TrimSpace(req.LeaderID)
	if leaderID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "leaderId is required")
	}

	for attempt := 1; attempt <= s.opts.MaxCodeAttempts; attempt++ {
		code := game.GenerateRoomCode(s.machine.Rand(), s.opts.CodeLength)

		existing, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Debug("房间码冲突", zap.String("code", code), zap.Int("attempt", attempt))
			continue
		}

		id, err := s.repo.Insert(ctx, game.NewRoom(code, leaderID, s.machine.Now()))
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			// 检查与写入之间被抢占
			continue
		}
		if err != nil {
			return nil, err
		}

		room, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.committed(ctx, cmdCreate, room)
		return room, nil
	}

	return nil, apperrors.Newf(apperrors.ErrCodeGenerationExhausted,
		"Failed to generate a unique room code after %d attempts", s.opts.MaxCodeAttempts)
}

// JoinRoom 加入或重连
func (s *roomService) JoinRoom(ctx context.Context, req *JoinRoomRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdJoin, func(room *game.Room) (*game.Patch, error) {
		return s.machine.Join(room, req.PlayerID, req.Name)
	})
}

// TransferLeadership 转让主持人
func (s *roomService) TransferLeadership(ctx context.Context, req *TransferLeadershipRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdTransferLeadership, func(room *game.Room) (*game.Patch, error) {
		return s.machine.TransferLeadership(room, req.CurrentLeaderID, req.NewLeaderID)
	})
}

// RemovePlayer 移除玩家
func (s *roomService) RemovePlayer(ctx context.Context, req *RemovePlayerRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdRemovePlayer, func(room *game.Room) (*game.Patch, error) {
		return s.machine.RemovePlayer(room, req.LeaderID, req.PlayerID)
	})
}

// StartGame 开始游戏
func (s *roomService) StartGame(ctx context.Context, req *StartGameRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdStart, func(room *game.Room) (*game.Patch, error) {
		return s.machine.Start(room, req.LeaderID)
	})
}

// AdvancePhase 切换昼夜
func (s *roomService) AdvancePhase(ctx context.Context, req *AdvancePhaseRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdAdvancePhase, func(room *game.Room) (*game.Patch, error) {
		return s.machine.AdvancePhase(room, req.LeaderID)
	})
}

// CastVote 投票
func (s *roomService) CastVote(ctx context.Context, req *CastVoteRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdCastVote, func(room *game.Room) (*game.Patch, error) {
		return s.machine.CastVote(room, req.VoterID, req.TargetID, req.VoteType)
	})
}

// ExecuteVotes 执行投票
func (s *roomService) ExecuteVotes(ctx context.Context, req *ExecuteVotesRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdExecuteVotes, func(room *game.Room) (*game.Patch, error) {
		return s.machine.ExecuteVotes(room, req.LeaderID, req.VoteType)
	})
}

// PerformNightAction 夜间行动
func (s *roomService) PerformNightAction(ctx context.Context, req *NightActionRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdNightAction, func(room *game.Room) (*game.Patch, error) {
		return s.machine.PerformNightAction(room, req.PlayerID, req.Action, req.TargetID)
	})
}

// EndGame 主持人强制结束
func (s *roomService) EndGame(ctx context.Context, req *EndGameRequest) (*game.Room, error) {
	return s.execute(ctx, req.Code, game.CmdEndGame, func(room *game.Room) (*game.Patch, error) {
		return s.machine.EndGame(room, req.LeaderID, req.WinningTeam)
	})
}

// GetRoomByCode 按房间码查询，不存在时返回 nil
func (s *roomService) GetRoomByCode(ctx context.Context, code string) (*game.Room, error) {
	return s.repo.FindByCode(ctx, normalizeCode(code))
}

// GetRoomView 按观察者裁剪后的房间
func (s *roomService) GetRoomView(ctx context.Context, code, viewerID string) (*game.Room, error) {
	room, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	return game.ViewFor(room, viewerID), nil
}

// GetNightActionResult 侦探本人的查验结果
func (s *roomService) GetNightActionResult(ctx context.Context, code, playerID string) (*game.InvestigationResult, error) {
	room, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	return game.NightActionResult(room, playerID), nil
}

func (s *roomService) load(ctx context.Context, code string) (*game.Room, error) {
	room, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperrors.New(apperrors.ErrRoomNotFound, "Room not found")
	}
	return room, nil
}

// execute 读取、计算、按版本号写入，然后通知
func (s *roomService) execute(ctx context.Context, code string, cmd game.Command, fn func(*game.Room) (*game.Patch, error)) (*game.Room, error) {
	room, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}

	patch, err := fn(room)
	if err != nil {
		s.logger.Debug("房间命令被拒绝",
			zap.String("command", string(cmd)),
			zap.String("room_code", room.Code),
			zap.Error(err))
		return nil, err
	}
	if patch.IsEmpty() {
		return room, nil
	}

	next, err := s.repo.Patch(ctx, room.ID, room.Revision, patch)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrRevisionConflict) {
			s.logger.Warn("房间并发修改",
				zap.String("command", string(cmd)),
				zap.String("room_code", room.Code),
				zap.Int64("revision", room.Revision))
		}
		return nil, err
	}

	s.committed(ctx, string(cmd), next)
	return next, nil
}

func (s *roomService) committed(ctx context.Context, command string, room *game.Room) {
	logger.LogRoomEvent(command, room.Code, room.Revision,
		zap.String("status", string(room.Status)),
		zap.String("phase", string(room.Phase)))

	for _, n := range s.notifiers {
		if err := n.RoomUpdated(ctx, command, room); err != nil {
			s.logger.Warn("房间通知失败",
				zap.String("command", command),
				zap.String("room_code", room.Code),
				zap.Error(err))
		}
	}
}
