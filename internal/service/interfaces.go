package service

import (
	"context"

	"github.com/wfunc/mafia-game/internal/game"
)

// RoomService 房间服务接口
type RoomService interface {
	// 命令
	CreateRoom(ctx context.Context, req *CreateRoomRequest) (*game.Room, error)
	JoinRoom(ctx context.Context, req *JoinRoomRequest) (*game.Room, error)
	TransferLeadership(ctx context.Context, req *TransferLeadershipRequest) (*game.Room, error)
	RemovePlayer(ctx context.Context, req *RemovePlayerRequest) (*game.Room, error)
	StartGame(ctx context.Context, req *StartGameRequest) (*game.Room, error)
	AdvancePhase(ctx context.Context, req *AdvancePhaseRequest) (*game.Room, error)
	CastVote(ctx context.Context, req *CastVoteRequest) (*game.Room, error)
	ExecuteVotes(ctx context.Context, req *ExecuteVotesRequest) (*game.Room, error)
	PerformNightAction(ctx context.Context, req *NightActionRequest) (*game.Room, error)
	EndGame(ctx context.Context, req *EndGameRequest) (*game.Room, error)

	// 查询
	GetRoomByCode(ctx context.Context, code string) (*game.Room, error)
	GetRoomView(ctx context.Context, code, viewerID string) (*game.Room, error)
	GetNightActionResult(ctx context.Context, code, playerID string) (*game.InvestigationResult, error)
}

// Notifier 房间变更通知，错误只记录不影响命令结果
type Notifier interface {
	RoomUpdated(ctx context.Context, command string, room *game.Room) error
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	LeaderID string `json:"leaderId" binding:"required"`
}

// JoinRoomRequest 加入房间请求
type JoinRoomRequest struct {
	Code     string `json:"-"`
	PlayerID string `json:"playerId" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// TransferLeadershipRequest 转让主持人请求
type TransferLeadershipRequest struct {
	Code            string `json:"-"`
	CurrentLeaderID string `json:"currentLeaderId" binding:"required"`
	NewLeaderID     string `json:"newLeaderId" binding:"required"`
}

// RemovePlayerRequest 移除玩家请求
type RemovePlayerRequest struct {
	Code     string `json:"-"`
	LeaderID string `json:"leaderId" binding:"required"`
	PlayerID string `json:"-"`
}

// StartGameRequest 开始游戏请求
type StartGameRequest struct {
	Code     string `json:"-"`
	LeaderID string `json:"leaderId" binding:"required"`
}

// AdvancePhaseRequest 切换阶段请求
type AdvancePhaseRequest struct {
	Code     string `json:"-"`
	LeaderID string `json:"leaderId" binding:"required"`
}

// CastVoteRequest 投票请求
type CastVoteRequest struct {
	Code     string        `json:"-"`
	VoterID  string        `json:"voterId" binding:"required"`
	TargetID string        `json:"targetId" binding:"required"`
	VoteType game.VoteType `json:"voteType" binding:"required"`
}

// ExecuteVotesRequest 执行投票请求
type ExecuteVotesRequest struct {
	Code     string        `json:"-"`
	LeaderID string        `json:"leaderId" binding:"required"`
	VoteType game.VoteType `json:"voteType" binding:"required"`
}

// NightActionRequest 夜间行动请求
type NightActionRequest struct {
	Code     string          `json:"-"`
	PlayerID string          `json:"playerId" binding:"required"`
	Action   game.ActionType `json:"action" binding:"required"`
	TargetID string          `json:"targetId" binding:"required"`
}

// EndGameRequest 结束游戏请求，WinningTeam 可为空
type EndGameRequest struct {
	Code        string    `json:"-"`
	LeaderID    string    `json:"leaderId" binding:"required"`
	WinningTeam game.Team `json:"winningTeam"`
}
