package game

import "time"

// Patch 一次命令产生的房间变更，nil字段表示不修改
type Patch struct {
	LeaderID               *string        `json:"leaderId,omitempty"`
	Narrator               *Player        `json:"narrator,omitempty"`
	Status                 *Status        `json:"status,omitempty"`
	Phase                  *Phase         `json:"gamePhase,omitempty"`
	Players                *[]Player      `json:"players,omitempty"`
	Votes                  *[]Vote        `json:"currentVotes,omitempty"`
	NightActions           *[]NightAction `json:"nightActions,omitempty"`
	LastEliminationResult  *string        `json:"lastEliminationResult,omitempty"`
	PhaseTransitionMessage *string        `json:"phaseTransitionMessage,omitempty"`
	Winner                 *Team          `json:"winner,omitempty"`
	// AppendHistory 只追加，不允许改写已有历史
	AppendHistory []HistoryEvent `json:"appendHistory,omitempty"`
}

// IsEmpty 是否没有任何变更
func (p *Patch) IsEmpty() bool {
	return p == nil || (p.LeaderID == nil && p.Narrator == nil && p.Status == nil &&
		p.Phase == nil && p.Players == nil && p.Votes == nil && p.NightActions == nil &&
		p.LastEliminationResult == nil && p.PhaseTransitionMessage == nil &&
		p.Winner == nil && len(p.AppendHistory) == 0)
}

// Apply 在房间副本上应用变更，原房间不变
func (p *Patch) Apply(room *Room, now time.Time) *Room {
	next := room.Clone()
	if p == nil {
		return next
	}
	if p.LeaderID != nil {
		next.LeaderID = *p.LeaderID
	}
	if p.Narrator != nil {
		n := p.Narrator.clone()
		next.Narrator = &n
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Phase != nil {
		next.Phase = *p.Phase
	}
	if p.Players != nil {
		next.Players = clonePlayers(*p.Players)
	}
	if p.Votes != nil {
		next.Votes = append([]Vote{}, (*p.Votes)...)
	}
	if p.NightActions != nil {
		next.NightActions = append([]NightAction{}, (*p.NightActions)...)
	}
	if p.LastEliminationResult != nil {
		next.LastEliminationResult = *p.LastEliminationResult
	}
	if p.PhaseTransitionMessage != nil {
		next.PhaseTransitionMessage = *p.PhaseTransitionMessage
	}
	if p.Winner != nil {
		next.Winner = *p.Winner
	}
	next.History = append(next.History, p.AppendHistory...)
	next.UpdatedAt = now
	return next
}

func ptr[T any](v T) *T {
	return &v
}
