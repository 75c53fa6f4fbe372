package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWinCondition(t *testing.T) {
	alive := func(id string, role Role) Player {
		return Player{ID: id, Role: role, IsAlive: boolPtr(true)}
	}
	dead := func(id string, role Role) Player {
		return Player{ID: id, Role: role, IsAlive: boolPtr(false)}
	}

	testCases := []struct {
		name    string
		players []Player
		want    Outcome
	}{
		{
			name:    "黑手党人数与好人持平",
			players: []Player{alive("m", RoleMafia), alive("c", RoleCitizen), dead("d", RoleDoctor)},
			want:    Outcome{Winner: TeamMafia, GameEnded: true},
		},
		{
			name:    "黑手党全部出局",
			players: []Player{dead("m", RoleMafia), alive("c", RoleCitizen), alive("det", RoleDetective)},
			want:    Outcome{Winner: TeamTownspeople, GameEnded: true},
		},
		{
			name:    "游戏继续",
			players: []Player{alive("m", RoleMafia), alive("c1", RoleCitizen), alive("c2", RoleCitizen)},
			want:    Outcome{},
		},
		{
			name:    "未分配身份的玩家不计入",
			players: []Player{alive("m", RoleMafia), alive("c1", RoleCitizen), {ID: "x", Name: "X"}},
			want:    Outcome{Winner: TeamMafia, GameEnded: true},
		},
		{
			name:    "双方都为0不判胜负",
			players: []Player{dead("m", RoleMafia), dead("c", RoleCitizen)},
			want:    Outcome{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateWinCondition(tc.players))
		})
	}
}
