package game

import (
	"math/rand"

	apperrors "github.com/wfunc/mafia-game/internal/errors"
)

// Distribution 身份分布
type Distribution struct {
	Mafia     int `json:"mafia"`
	Detective int `json:"detective"`
	Doctor    int `json:"doctor"`
	Citizen   int `json:"citizen"`
}

// RoleDistribution 根据实际玩家数计算身份分布
func RoleDistribution(n int) Distribution {
	if n <= 0 {
		return Distribution{}
	}
	d := Distribution{Mafia: max(1, n/4)}
	if n >= 4 {
		d.Detective = 1
	}
	if n >= 5 {
		d.Doctor = 1
	}
	d.Citizen = max(0, n-d.Mafia-d.Detective-d.Doctor)
	return d
}

// roleList 按 黑手党→侦探→医生→平民 顺序展开
func (d Distribution) roleList() []Role {
	roles := make([]Role, 0, d.Mafia+d.Detective+d.Doctor+d.Citizen)
	for i := 0; i < d.Mafia; i++ {
		roles = append(roles, RoleMafia)
	}
	for i := 0; i < d.Detective; i++ {
		roles = append(roles, RoleDetective)
	}
	for i := 0; i < d.Doctor; i++ {
		roles = append(roles, RoleDoctor)
	}
	for i := 0; i < d.Citizen; i++ {
		roles = append(roles, RoleCitizen)
	}
	return roles
}

// AssignRoles 洗牌后按顺序发放身份，返回的玩家保持加入顺序
func AssignRoles(players []Player, rng *rand.Rand) ([]Player, error) {
	n := len(players)
	if n == 0 {
		return nil, apperrors.New(apperrors.ErrRoleConfiguration, "no players to assign roles to")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// rand.Shuffle 即 Fisher-Yates
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	assigned := clonePlayers(players)
	roles := RoleDistribution(n).roleList()
	for i, idx := range order {
		assigned[idx].Role = roles[i]
		assigned[idx].IsAlive = boolPtr(true)
	}
	return assigned, nil
}
