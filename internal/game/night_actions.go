package game

import (
	"fmt"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
)

// NightActionStatus 夜间行动完成情况
type NightActionStatus struct {
	Complete bool     `json:"complete"`
	Pending  []string `json:"pending"`
}

// InvestigationResult 侦探查验结果
type InvestigationResult struct {
	TargetName string `json:"targetName"`
	TargetRole Role   `json:"targetRole"`
}

// SubmitNightAction 校验并记录一次夜间行动，返回新的行动列表
func SubmitNightAction(room *Room, playerID string, action ActionType, targetID string) ([]NightAction, error) {
	if !action.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "unknown night action %q", action)
	}
	if room.Status != StatusActive {
		return nil, apperrors.New(apperrors.ErrInvalidGameState, "Game must be active to perform actions")
	}
	if room.Phase != PhaseNight {
		return nil, apperrors.New(apperrors.ErrInvalidGameState, "Night actions can only be performed during night phase")
	}

	actor, ok := room.FindPlayer(playerID)
	if !ok || !actor.Alive() {
		return nil, apperrors.New(apperrors.ErrValidation, "Only alive players can perform actions")
	}
	switch action {
	case ActionInvestigate:
		if actor.Role != RoleDetective {
			return nil, apperrors.New(apperrors.ErrValidation, "Only detectives can investigate")
		}
	case ActionProtect:
		if actor.Role != RoleDoctor {
			return nil, apperrors.New(apperrors.ErrValidation, "Only doctors can protect")
		}
	}

	if err := validateTarget(room, targetID); err != nil {
		return nil, err
	}
	if action == ActionInvestigate && targetID == playerID {
		return nil, apperrors.New(apperrors.ErrValidation, "Detectives cannot investigate themselves")
	}

	for _, existing := range room.NightActions {
		if existing.PlayerID == playerID && existing.Action == action && existing.IsLocked {
			return nil, apperrors.Newf(apperrors.ErrActionAlreadyLocked,
				"%s has already performed their %s for this night", actorLabel(action), action)
		}
	}

	// 每人每晚只保留一条行动
	next := make([]NightAction, 0, len(room.NightActions)+1)
	for _, existing := range room.NightActions {
		if existing.PlayerID != playerID {
			next = append(next, existing)
		}
	}
	next = append(next, NightAction{
		PlayerID: playerID,
		Action:   action,
		TargetID: targetID,
		IsLocked: true,
	})
	return next, nil
}

func actorLabel(action ActionType) string {
	if action == ActionInvestigate {
		return "Detective"
	}
	return "Doctor"
}

// validateTarget 目标必须是弃权或存活的普通玩家
func validateTarget(room *Room, targetID string) error {
	if targetID == Abstain {
		return nil
	}
	if targetID == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "target is required")
	}
	if room.IsLeader(targetID) {
		return apperrors.New(apperrors.ErrValidation, "Cannot target the narrator")
	}
	target, ok := room.FindPlayer(targetID)
	if !ok || !target.Alive() {
		return apperrors.New(apperrors.ErrValidation, "Can only target alive players")
	}
	return nil
}

// CheckNightActions 列出本夜尚未行动的角色
func CheckNightActions(room *Room) NightActionStatus {
	if room.Phase != PhaseNight {
		return NightActionStatus{Complete: true, Pending: []string{}}
	}

	pending := []string{}
	var doctor, detective *Player
	for i := range room.Players {
		p := room.Players[i]
		if !p.Alive() {
			continue
		}
		switch p.Role {
		case RoleMafia:
			if !hasVote(room.Votes, p.ID, VoteMafia) {
				pending = append(pending, fmt.Sprintf("%s (Mafia Vote)", p.Name))
			}
		case RoleDoctor:
			if doctor == nil {
				doctor = &room.Players[i]
			}
		case RoleDetective:
			if detective == nil {
				detective = &room.Players[i]
			}
		}
	}

	if doctor != nil && !hasAction(room.NightActions, doctor.ID, ActionProtect) {
		pending = append(pending, fmt.Sprintf("%s (Doctor Action)", doctor.Name))
	}
	if detective != nil && !hasAction(room.NightActions, detective.ID, ActionInvestigate) {
		pending = append(pending, fmt.Sprintf("%s (Detective Action)", detective.Name))
	}

	return NightActionStatus{Complete: len(pending) == 0, Pending: pending}
}

func hasVote(votes []Vote, voterID string, voteType VoteType) bool {
	for _, v := range votes {
		if v.VoterID == voterID && v.VoteType == voteType {
			return true
		}
	}
	return false
}

func hasAction(actions []NightAction, playerID string, action ActionType) bool {
	for _, a := range actions {
		if a.PlayerID == playerID && a.Action == action {
			return true
		}
	}
	return false
}

// ResolveProtection 目标是否被医生保护，返回保护者ID
func ResolveProtection(actions []NightAction, targetID string) (bool, string) {
	for _, a := range actions {
		if a.Action == ActionProtect && a.IsLocked && a.TargetID == targetID && targetID != Abstain {
			return true, a.PlayerID
		}
	}
	return false, ""
}

// NightActionResult 返回侦探本人当前的查验结果，非侦探或未查验时为nil
func NightActionResult(room *Room, playerID string) *InvestigationResult {
	player, ok := room.FindPlayer(playerID)
	if !ok || player.Role != RoleDetective {
		return nil
	}
	for _, a := range room.NightActions {
		if a.PlayerID != playerID || a.Action != ActionInvestigate {
			continue
		}
		target, ok := room.FindPlayer(a.TargetID)
		if !ok {
			return nil
		}
		return &InvestigationResult{TargetName: target.Name, TargetRole: target.Role}
	}
	return nil
}
