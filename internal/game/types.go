package game

import "time"

// Status 房间状态
type Status string

const (
	StatusWaiting  Status = "waiting"  // 等待玩家加入
	StatusActive   Status = "active"   // 游戏进行中
	StatusFinished Status = "finished" // 游戏结束
)

// Valid 是否为合法状态
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusFinished:
		return true
	}
	return false
}

// Phase 游戏阶段
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

// Valid 是否为合法阶段
func (p Phase) Valid() bool {
	return p == PhaseDay || p == PhaseNight
}

// Next 下一个阶段
func (p Phase) Next() Phase {
	if p == PhaseNight {
		return PhaseDay
	}
	return PhaseNight
}

// Role 玩家身份
type Role string

const (
	RoleMafia     Role = "mafia"
	RoleCitizen   Role = "citizen"
	RoleDetective Role = "detective"
	RoleDoctor    Role = "doctor"
)

// Valid 是否为合法身份
func (r Role) Valid() bool {
	switch r {
	case RoleMafia, RoleCitizen, RoleDetective, RoleDoctor:
		return true
	}
	return false
}

// Team 阵营
type Team string

const (
	TeamMafia       Team = "mafia"
	TeamTownspeople Team = "townspeople"
)

// Valid 是否为合法阵营
func (t Team) Valid() bool {
	return t == TeamMafia || t == TeamTownspeople
}

// VoteType 投票类型
type VoteType string

const (
	VoteDay   VoteType = "day"   // 白天公投
	VoteMafia VoteType = "mafia" // 夜间黑手党投票
)

// Valid 是否为合法投票类型
func (v VoteType) Valid() bool {
	return v == VoteDay || v == VoteMafia
}

// ActionType 夜间行动类型
type ActionType string

const (
	ActionProtect     ActionType = "protect"
	ActionInvestigate ActionType = "investigate"
)

// Valid 是否为合法行动类型
func (a ActionType) Valid() bool {
	return a == ActionProtect || a == ActionInvestigate
}

// Abstain 弃权目标
const Abstain = "ABSTAIN"

// Player 玩家
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role,omitempty"`
	IsAlive *bool  `json:"isAlive,omitempty"` // 分配身份前为空
}

// Alive 玩家是否存活
func (p Player) Alive() bool {
	return p.IsAlive != nil && *p.IsAlive
}

// Assigned 是否已分配身份
func (p Player) Assigned() bool {
	return p.Role != ""
}

func (p Player) clone() Player {
	if p.IsAlive != nil {
		alive := *p.IsAlive
		p.IsAlive = &alive
	}
	return p
}

// Vote 投票
type Vote struct {
	VoterID  string   `json:"voterId"`
	TargetID string   `json:"targetId"`
	VoteType VoteType `json:"voteType"`
}

// NightAction 夜间行动
type NightAction struct {
	PlayerID string     `json:"playerId"`
	Action   ActionType `json:"action"`
	TargetID string     `json:"targetId"`
	IsLocked bool       `json:"isLocked"`
}

// HistoryEvent 历史事件
type HistoryEvent struct {
	Timestamp   int64  `json:"timestamp"` // 毫秒
	Event       string `json:"event"`
	Description string `json:"description"`
}

// 历史事件名
const (
	EventGameStarted      = "game_started"
	EventPhaseNight       = "phase_night"
	EventPhaseDay         = "phase_day"
	EventDayElimination   = "day_elimination"
	EventMafiaElimination = "mafia_elimination"
	EventPlayerProtected  = "player_protected"
	EventNoElimination    = "no_elimination"
	EventPlayerRemoved    = "player_removed"
	EventGameOver         = "game_over"
	EventGameEndedByHost  = "game_ended_by_narrator"
)

// Room 房间聚合
type Room struct {
	ID                     string         `json:"id"`
	Code                   string         `json:"code"`
	LeaderID               string         `json:"leaderId"`
	Narrator               *Player        `json:"narrator,omitempty"`
	Status                 Status         `json:"status"`
	Phase                  Phase          `json:"gamePhase,omitempty"`
	Players                []Player       `json:"players"`
	Votes                  []Vote         `json:"currentVotes"`
	NightActions           []NightAction  `json:"nightActions"`
	LastEliminationResult  string         `json:"lastEliminationResult,omitempty"`
	PhaseTransitionMessage string         `json:"phaseTransitionMessage,omitempty"`
	History                []HistoryEvent `json:"gameHistory"`
	Winner                 Team           `json:"winner,omitempty"`
	Revision               int64          `json:"revision"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

// NewRoom 创建等待中的空房间
func NewRoom(code, leaderID string, now time.Time) *Room {
	return &Room{
		Code:         code,
		LeaderID:     leaderID,
		Status:       StatusWaiting,
		Players:      []Player{},
		Votes:        []Vote{},
		NightActions: []NightAction{},
		History:      []HistoryEvent{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone 深拷贝
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	if r.Narrator != nil {
		n := r.Narrator.clone()
		c.Narrator = &n
	}
	c.Players = clonePlayers(r.Players)
	c.Votes = append([]Vote{}, r.Votes...)
	c.NightActions = append([]NightAction{}, r.NightActions...)
	c.History = append([]HistoryEvent{}, r.History...)
	return &c
}

// FindPlayer 按ID查找玩家（不含主持人）
func (r *Room) FindPlayer(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// IsLeader 是否为主持人
func (r *Room) IsLeader(id string) bool {
	return id != "" && r.LeaderID == id
}

// AlivePlayers 存活玩家
func (r *Room) AlivePlayers() []Player {
	alive := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// PlayerName 玩家名，找不到时返回ID
func (r *Room) PlayerName(id string) string {
	if p, ok := r.FindPlayer(id); ok {
		return p.Name
	}
	if r.Narrator != nil && r.Narrator.ID == id {
		return r.Narrator.Name
	}
	return id
}

func clonePlayers(players []Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = p.clone()
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}
