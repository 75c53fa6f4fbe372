package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"go.uber.org/zap"
)

// Command 房间命令
type Command string

const (
	CmdJoin               Command = "join"
	CmdTransferLeadership Command = "transfer_leadership"
	CmdRemovePlayer       Command = "remove_player"
	CmdStart              Command = "start"
	CmdAdvancePhase       Command = "advance_phase"
	CmdCastVote           Command = "cast_vote"
	CmdExecuteVotes       Command = "execute_votes"
	CmdNightAction        Command = "night_action"
	CmdEndGame            Command = "end_game"
)

// commandRule 命令的前置条件
type commandRule struct {
	States     []Status
	LeaderOnly bool
	LeaderMsg  string
	StateMsg   string
}

var commandRules = map[Command]commandRule{
	CmdJoin: {
		States:   []Status{StatusWaiting},
		StateMsg: "Room is not accepting new players",
	},
	CmdTransferLeadership: {
		States:     []Status{StatusWaiting},
		LeaderOnly: true,
		LeaderMsg:  "Only the current leader can transfer leadership",
		StateMsg:   "Leadership can only be transferred before the game starts",
	},
	CmdRemovePlayer: {
		States:     []Status{StatusWaiting, StatusActive},
		LeaderOnly: true,
		LeaderMsg:  "Only the narrator can remove players",
		StateMsg:   "Players cannot be removed after the game has finished",
	},
	CmdStart: {
		States:     []Status{StatusWaiting},
		LeaderOnly: true,
		LeaderMsg:  "Only the room leader can start the game",
		StateMsg:   "Game cannot be started",
	},
	CmdAdvancePhase: {
		States:     []Status{StatusActive},
		LeaderOnly: true,
		LeaderMsg:  "Only the narrator can advance phases",
		StateMsg:   "Game must be active to advance phases",
	},
	CmdExecuteVotes: {
		States:     []Status{StatusActive},
		LeaderOnly: true,
		LeaderMsg:  "Only the narrator can execute votes",
		StateMsg:   "Game must be active to execute votes",
	},
	CmdEndGame: {
		States:     []Status{StatusActive},
		LeaderOnly: true,
		LeaderMsg:  "Only the narrator can end the game",
		StateMsg:   "Game must be active to end it",
	},
}

// Options 状态机参数
type Options struct {
	MinPlayers int
	TieBreak   TieBreakPolicy
	Seed       int64 // 0 表示使用当前时间
	Now        func() time.Time
}

// Machine 房间状态机，不持有房间，只根据输入房间计算变更
type Machine struct {
	minPlayers int
	tieBreak   TieBreakPolicy
	rng        *rand.Rand
	narrator   *Narrator
	now        func() time.Time
	logger     *zap.Logger
}

// NewMachine 创建状态机
func NewMachine(opts Options, logger *zap.Logger) *Machine {
	if opts.MinPlayers <= 0 {
		opts.MinPlayers = 3
	}
	if opts.TieBreak == "" {
		opts.TieBreak = TieBreakFirstSeen
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rng := rand.New(&lockedSource{src: rand.NewSource(opts.Seed).(rand.Source64)})
	return &Machine{
		minPlayers: opts.MinPlayers,
		tieBreak:   opts.TieBreak,
		rng:        rng,
		narrator:   &Narrator{rng: rng},
		now:        opts.Now,
		logger:     logger,
	}
}

// Rand 状态机共享的随机源，可并发使用
func (m *Machine) Rand() *rand.Rand {
	return m.rng
}

// Now 当前时间
func (m *Machine) Now() time.Time {
	return m.now()
}

// TieBreak 当前平票规则
func (m *Machine) TieBreak() TieBreakPolicy {
	return m.tieBreak
}

func (m *Machine) timestamp() int64 {
	return m.now().UnixMilli()
}

// guard 先校验主持人身份，再校验房间状态
func (m *Machine) guard(room *Room, cmd Command, actorID string) error {
	rule, ok := commandRules[cmd]
	if !ok {
		return apperrors.Newf(apperrors.ErrUnknown, "no rule for command %s", cmd)
	}
	if rule.LeaderOnly && !room.IsLeader(actorID) {
		return apperrors.New(apperrors.ErrNotLeader, rule.LeaderMsg)
	}
	for _, s := range rule.States {
		if room.Status == s {
			return nil
		}
	}
	return apperrors.New(apperrors.ErrInvalidGameState, rule.StateMsg)
}

func (m *Machine) trace(cmd Command, room *Room, actorID string) {
	m.logger.Debug("房间命令校验通过",
		zap.String("command", string(cmd)),
		zap.String("room_code", room.Code),
		zap.String("actor_id", actorID),
		zap.String("status", string(room.Status)),
		zap.String("phase", string(room.Phase)))
}

// Join 加入或重连；主持人加入时只更新主持人信息
func (m *Machine) Join(room *Room, playerID, name string) (*Patch, error) {
	name = strings.TrimSpace(name)
	if playerID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "player id is required")
	}
	if name == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "player name is required")
	}
	if err := m.guard(room, CmdJoin, playerID); err != nil {
		return nil, err
	}
	m.trace(CmdJoin, room, playerID)

	if room.IsLeader(playerID) {
		return &Patch{Narrator: &Player{ID: playerID, Name: name}}, nil
	}

	players := clonePlayers(room.Players)
	for i := range players {
		if players[i].ID == playerID {
			players[i].Name = name
			return &Patch{Players: &players}, nil
		}
	}
	players = append(players, Player{ID: playerID, Name: name})
	return &Patch{Players: &players}, nil
}

// TransferLeadership 把主持人交给房间内的玩家，原主持人（若已加入）成为普通玩家
func (m *Machine) TransferLeadership(room *Room, currentLeaderID, newLeaderID string) (*Patch, error) {
	if err := m.guard(room, CmdTransferLeadership, currentLeaderID); err != nil {
		return nil, err
	}
	successor, ok := room.FindPlayer(newLeaderID)
	if !ok {
		return nil, apperrors.New(apperrors.ErrValidation, "New leader must be a player in the room")
	}
	m.trace(CmdTransferLeadership, room, currentLeaderID)

	players := make([]Player, 0, len(room.Players))
	for _, p := range room.Players {
		if p.ID != newLeaderID {
			players = append(players, p.clone())
		}
	}
	if room.Narrator != nil {
		players = append(players, Player{ID: room.Narrator.ID, Name: room.Narrator.Name})
	}

	return &Patch{
		LeaderID: ptr(newLeaderID),
		Narrator: &Player{ID: successor.ID, Name: successor.Name},
		Players:  &players,
	}, nil
}

// RemovePlayer 主持人移除玩家，同时清理该玩家相关的投票和夜间行动
func (m *Machine) RemovePlayer(room *Room, leaderID, playerID string) (*Patch, error) {
	if err := m.guard(room, CmdRemovePlayer, leaderID); err != nil {
		return nil, err
	}
	if room.IsLeader(playerID) {
		return nil, apperrors.New(apperrors.ErrValidation, "The narrator cannot be removed")
	}
	target, ok := room.FindPlayer(playerID)
	if !ok {
		return nil, apperrors.New(apperrors.ErrValidation, "Player is not in the room")
	}
	m.trace(CmdRemovePlayer, room, leaderID)

	players := make([]Player, 0, len(room.Players))
	for _, p := range room.Players {
		if p.ID != playerID {
			players = append(players, p.clone())
		}
	}
	votes := make([]Vote, 0, len(room.Votes))
	for _, v := range room.Votes {
		if v.VoterID != playerID && v.TargetID != playerID {
			votes = append(votes, v)
		}
	}
	actions := make([]NightAction, 0, len(room.NightActions))
	for _, a := range room.NightActions {
		if a.PlayerID != playerID && a.TargetID != playerID {
			actions = append(actions, a)
		}
	}

	ts := m.timestamp()
	patch := &Patch{
		Players:      &players,
		Votes:        &votes,
		NightActions: &actions,
		AppendHistory: []HistoryEvent{{
			Timestamp:   ts,
			Event:       EventPlayerRemoved,
			Description: fmt.Sprintf("%s was removed from the game", target.Name),
		}},
	}

	if room.Status == StatusActive {
		m.applyOutcome(patch, EvaluateWinCondition(players), ts)
	}
	return patch, nil
}

// Start 分配身份并进入第一个白天
func (m *Machine) Start(room *Room, leaderID string) (*Patch, error) {
	if err := m.guard(room, CmdStart, leaderID); err != nil {
		return nil, err
	}
	if len(room.Players) < m.minPlayers {
		return nil, apperrors.Newf(apperrors.ErrValidation, "Need at least %d players to start the game", m.minPlayers)
	}

	players, err := AssignRoles(room.Players, m.rng)
	if err != nil {
		return nil, err
	}
	m.trace(CmdStart, room, leaderID)

	return &Patch{
		Status:                 ptr(StatusActive),
		Phase:                  ptr(PhaseDay),
		Players:                &players,
		Votes:                  &[]Vote{},
		NightActions:           &[]NightAction{},
		LastEliminationResult:  ptr(""),
		PhaseTransitionMessage: ptr(""),
		AppendHistory: []HistoryEvent{{
			Timestamp:   m.timestamp(),
			Event:       EventGameStarted,
			Description: fmt.Sprintf("Game started with %d players", len(players)),
		}},
	}, nil
}

// AdvancePhase 昼夜切换
func (m *Machine) AdvancePhase(room *Room, leaderID string) (*Patch, error) {
	if err := m.guard(room, CmdAdvancePhase, leaderID); err != nil {
		return nil, err
	}
	m.trace(CmdAdvancePhase, room, leaderID)

	current := room.Phase
	if current == "" {
		current = PhaseDay
	}
	next := current.Next()

	patch := &Patch{
		Phase:                  ptr(next),
		PhaseTransitionMessage: ptr(m.narrator.PhaseMessage(next)),
		AppendHistory:          []HistoryEvent{phaseHistory(next, m.timestamp())},
	}
	if current == PhaseNight {
		// 天亮后解除夜间行动锁定
		patch.NightActions = &[]NightAction{}
	} else {
		patch.LastEliminationResult = ptr("")
	}
	return patch, nil
}

// CastVote 投票
func (m *Machine) CastVote(room *Room, voterID, targetID string, voteType VoteType) (*Patch, error) {
	votes, err := CastVote(room, voterID, targetID, voteType)
	if err != nil {
		return nil, err
	}
	m.trace(CmdCastVote, room, voterID)
	return &Patch{Votes: &votes}, nil
}

// PerformNightAction 夜间行动，提交即锁定
func (m *Machine) PerformNightAction(room *Room, playerID string, action ActionType, targetID string) (*Patch, error) {
	actions, err := SubmitNightAction(room, playerID, action, targetID)
	if err != nil {
		return nil, err
	}
	m.trace(CmdNightAction, room, playerID)
	return &Patch{NightActions: &actions}, nil
}

// ExecuteVotes 结算指定类型的投票
func (m *Machine) ExecuteVotes(room *Room, leaderID string, voteType VoteType) (*Patch, error) {
	if !voteType.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "unknown vote type %q", voteType)
	}
	if err := m.guard(room, CmdExecuteVotes, leaderID); err != nil {
		return nil, err
	}
	if voteType == VoteMafia {
		if status := CheckNightActions(room); !status.Complete {
			return nil, apperrors.Newf(apperrors.ErrNightActionsIncomplete,
				"Cannot execute mafia votes. Still waiting for: %s", strings.Join(status.Pending, ", ")).
				WithPending(status.Pending)
		}
	}
	counted := LiveVotes(room, voteType)
	if len(counted) == 0 {
		return nil, apperrors.New(apperrors.ErrNoVotesToExecute, "No votes to execute")
	}
	m.trace(CmdExecuteVotes, room, leaderID)

	tally := TallyVotes(counted, voteType, m.tieBreak)
	target := tally.Target
	if target == Abstain {
		target = ""
	}

	ts := m.timestamp()
	players := clonePlayers(room.Players)
	var result string
	var event HistoryEvent

	protected := false
	if target != "" && voteType == VoteMafia {
		protected, _ = ResolveProtection(room.NightActions, target)
	}

	switch {
	case target == "":
		result = m.narrator.NoElimination(voteType)
		event = HistoryEvent{
			Timestamp:   ts,
			Event:       EventNoElimination,
			Description: fmt.Sprintf("No one was eliminated during %s phase", voteType),
		}
	case protected:
		name := room.PlayerName(target)
		result = m.narrator.Protection(name)
		event = HistoryEvent{
			Timestamp:   ts,
			Event:       EventPlayerProtected,
			Description: fmt.Sprintf("%s was protected by the doctor", name),
		}
	default:
		name := room.PlayerName(target)
		for i := range players {
			if players[i].ID == target {
				players[i].IsAlive = boolPtr(false)
			}
		}
		result = m.narrator.Elimination(voteType, name)
		eventName := EventDayElimination
		if voteType == VoteMafia {
			eventName = EventMafiaElimination
		}
		event = HistoryEvent{
			Timestamp:   ts,
			Event:       eventName,
			Description: fmt.Sprintf("%s was eliminated during %s phase", name, voteType),
		}
	}

	remaining := make([]Vote, 0, len(room.Votes))
	for _, v := range room.Votes {
		if v.VoteType != voteType {
			remaining = append(remaining, v)
		}
	}

	patch := &Patch{
		Players:               &players,
		Votes:                 &remaining,
		LastEliminationResult: ptr(result),
		AppendHistory:         []HistoryEvent{event},
	}
	m.applyOutcome(patch, EvaluateWinCondition(players), ts)

	m.logger.Info("投票结算完成",
		zap.String("room_code", room.Code),
		zap.String("vote_type", string(voteType)),
		zap.String("target", tally.Target),
		zap.Bool("tied", tally.Tied),
		zap.Bool("protected", protected))
	return patch, nil
}

// EndGame 主持人手动结束游戏，可指定获胜阵营
func (m *Machine) EndGame(room *Room, leaderID string, winningTeam Team) (*Patch, error) {
	if winningTeam != "" && !winningTeam.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "unknown team %q", winningTeam)
	}
	if err := m.guard(room, CmdEndGame, leaderID); err != nil {
		return nil, err
	}
	m.trace(CmdEndGame, room, leaderID)

	description := "The narrator ended the game"
	patch := &Patch{Status: ptr(StatusFinished), Phase: ptr(Phase(""))}
	if winningTeam != "" {
		patch.Winner = ptr(winningTeam)
		description = fmt.Sprintf("The narrator ended the game; %s declared the winners", winningTeam)
	}
	patch.AppendHistory = []HistoryEvent{{
		Timestamp:   m.timestamp(),
		Event:       EventGameEndedByHost,
		Description: description,
	}}
	return patch, nil
}

// applyOutcome 分出胜负时结束游戏
func (m *Machine) applyOutcome(patch *Patch, outcome Outcome, ts int64) {
	if !outcome.GameEnded {
		return
	}
	patch.Status = ptr(StatusFinished)
	patch.Phase = ptr(Phase(""))
	patch.Winner = ptr(outcome.Winner)
	patch.AppendHistory = append(patch.AppendHistory, HistoryEvent{
		Timestamp:   ts,
		Event:       EventGameOver,
		Description: fmt.Sprintf("Game over: %s win", outcome.Winner),
	})
}

// lockedSource 并发安全的随机源
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}
