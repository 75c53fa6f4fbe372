package game

// Outcome 胜负判定结果
type Outcome struct {
	Winner    Team `json:"winner,omitempty"`
	GameEnded bool `json:"gameEnded"`
}

// EvaluateWinCondition 只统计已分配身份的存活玩家
func EvaluateWinCondition(players []Player) Outcome {
	var aliveMafia, aliveTown int
	for _, p := range players {
		if !p.Alive() || !p.Assigned() {
			continue
		}
		if p.Role == RoleMafia {
			aliveMafia++
		} else {
			aliveTown++
		}
	}

	switch {
	case aliveMafia > 0 && aliveMafia >= aliveTown:
		return Outcome{Winner: TeamMafia, GameEnded: true}
	case aliveMafia == 0 && aliveTown > 0:
		return Outcome{Winner: TeamTownspeople, GameEnded: true}
	default:
		// 双方都为0时不判胜负，交给主持人结束
		return Outcome{}
	}
}
