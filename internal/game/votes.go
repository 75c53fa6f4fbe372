package game

import (
	"fmt"
	"sort"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
)

// TieBreakPolicy 平票处理规则
type TieBreakPolicy string

const (
	// TieBreakFirstSeen 按投票列表中最先出现的领先目标
	TieBreakFirstSeen TieBreakPolicy = "first_seen"
	// TieBreakLowestID 领先目标中ID字典序最小者
	TieBreakLowestID TieBreakPolicy = "lowest_id"
	// TieBreakNoElimination 平票时无人出局
	TieBreakNoElimination TieBreakPolicy = "no_elimination"
)

// ParseTieBreakPolicy 解析配置中的平票规则
func ParseTieBreakPolicy(s string) (TieBreakPolicy, error) {
	switch p := TieBreakPolicy(s); p {
	case TieBreakFirstSeen, TieBreakLowestID, TieBreakNoElimination:
		return p, nil
	case "":
		return TieBreakFirstSeen, nil
	default:
		return "", fmt.Errorf("unknown tie break policy %q", s)
	}
}

// TallyResult 计票结果
type TallyResult struct {
	Counts  map[string]int `json:"counts"`
	Order   []string       `json:"order"`   // 目标首次出现的顺序
	Leaders []string       `json:"leaders"` // 最高票目标
	Target  string         `json:"target"`  // 为空表示无人出局
	Tied    bool           `json:"tied"`
}

// CastVote 校验并记录投票，同一投票人同类型只保留最后一票
func CastVote(room *Room, voterID, targetID string, voteType VoteType) ([]Vote, error) {
	if !voteType.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "unknown vote type %q", voteType)
	}
	if room.Status != StatusActive {
		return nil, apperrors.New(apperrors.ErrInvalidGameState, "Game must be active to vote")
	}

	voter, ok := room.FindPlayer(voterID)
	if !ok || !voter.Alive() {
		return nil, apperrors.New(apperrors.ErrValidation, "Only alive players can vote")
	}
	if err := validateTarget(room, targetID); err != nil {
		return nil, err
	}

	switch voteType {
	case VoteDay:
		if room.Phase != PhaseDay {
			return nil, apperrors.New(apperrors.ErrInvalidGameState, "Day votes can only be cast during day phase")
		}
	case VoteMafia:
		if room.Phase != PhaseNight {
			return nil, apperrors.New(apperrors.ErrInvalidGameState, "Mafia votes can only be cast during night phase")
		}
		if voter.Role != RoleMafia {
			return nil, apperrors.New(apperrors.ErrValidation, "Only mafia members can cast mafia votes")
		}
	}

	next := make([]Vote, 0, len(room.Votes)+1)
	for _, v := range room.Votes {
		if v.VoterID == voterID && v.VoteType == voteType {
			continue
		}
		next = append(next, v)
	}
	next = append(next, Vote{VoterID: voterID, TargetID: targetID, VoteType: voteType})
	return next, nil
}

// TallyVotes 统计指定类型的票数，弃权也计为一个桶
func TallyVotes(votes []Vote, voteType VoteType, policy TieBreakPolicy) TallyResult {
	result := TallyResult{Counts: map[string]int{}, Order: []string{}, Leaders: []string{}}
	for _, v := range votes {
		if v.VoteType != voteType {
			continue
		}
		if _, seen := result.Counts[v.TargetID]; !seen {
			result.Order = append(result.Order, v.TargetID)
		}
		result.Counts[v.TargetID]++
	}
	if len(result.Order) == 0 {
		return result
	}

	top := 0
	for _, target := range result.Order {
		switch c := result.Counts[target]; {
		case c > top:
			top = c
			result.Leaders = []string{target}
		case c == top:
			result.Leaders = append(result.Leaders, target)
		}
	}
	result.Tied = len(result.Leaders) > 1

	switch {
	case !result.Tied:
		result.Target = result.Leaders[0]
	case policy == TieBreakNoElimination:
		result.Target = ""
	case policy == TieBreakLowestID:
		sorted := append([]string{}, result.Leaders...)
		sort.Strings(sorted)
		result.Target = sorted[0]
	default:
		result.Target = result.Leaders[0]
	}
	return result
}

// LiveVotes 指定类型中投票人和目标仍存活的票，弃权只要求投票人存活
func LiveVotes(room *Room, voteType VoteType) []Vote {
	alive := func(id string) bool {
		p, ok := room.FindPlayer(id)
		return ok && p.Alive()
	}
	live := make([]Vote, 0, len(room.Votes))
	for _, v := range room.Votes {
		if v.VoteType != voteType || !alive(v.VoterID) {
			continue
		}
		if v.TargetID != Abstain && !alive(v.TargetID) {
			continue
		}
		live = append(live, v)
	}
	return live
}

// CountVotes 指定类型的票数
func CountVotes(votes []Vote, voteType VoteType) int {
	n := 0
	for _, v := range votes {
		if v.VoteType == voteType {
			n++
		}
	}
	return n
}
