package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
)

func TestRoleDistribution(t *testing.T) {
	testCases := []struct {
		n    int
		want Distribution
	}{
		{3, Distribution{Mafia: 1, Citizen: 2}},
		{4, Distribution{Mafia: 1, Detective: 1, Citizen: 2}},
		{5, Distribution{Mafia: 1, Detective: 1, Doctor: 1, Citizen: 2}},
		{8, Distribution{Mafia: 2, Detective: 1, Doctor: 1, Citizen: 4}},
		{12, Distribution{Mafia: 3, Detective: 1, Doctor: 1, Citizen: 7}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d名玩家", tc.n), func(t *testing.T) {
			assert.Equal(t, tc.want, RoleDistribution(tc.n))
		})
	}
}

func TestAssignRoles(t *testing.T) {
	t.Run("身份数量正确且全部存活", func(t *testing.T) {
		for n := 1; n <= 15; n++ {
			players := make([]Player, n)
			for i := range players {
				players[i] = Player{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("P%d", i)}
			}

			assigned, err := AssignRoles(players, rand.New(rand.NewSource(int64(n))))
			require.NoError(t, err)
			require.Len(t, assigned, n)

			counts := map[Role]int{}
			for i, p := range assigned {
				assert.Equal(t, players[i].ID, p.ID, "保持加入顺序")
				assert.True(t, p.Alive())
				counts[p.Role]++
			}
			want := RoleDistribution(n)
			assert.Equal(t, want.Mafia, counts[RoleMafia])
			assert.Equal(t, want.Detective, counts[RoleDetective])
			assert.Equal(t, want.Doctor, counts[RoleDoctor])
			assert.Equal(t, want.Citizen, counts[RoleCitizen])
		}
	})

	t.Run("不修改输入", func(t *testing.T) {
		players := []Player{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}}
		_, err := AssignRoles(players, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		for _, p := range players {
			assert.False(t, p.Assigned())
			assert.Nil(t, p.IsAlive)
		}
	})

	t.Run("没有玩家时报配置错误", func(t *testing.T) {
		_, err := AssignRoles(nil, rand.New(rand.NewSource(1)))
		assert.True(t, apperrors.Is(err, apperrors.ErrRoleConfiguration))
		assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
	})

	t.Run("黑手党位置分布大致均匀", func(t *testing.T) {
		players := []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
		rng := rand.New(rand.NewSource(7))
		hits := map[string]int{}
		const rounds = 4000
		for i := 0; i < rounds; i++ {
			assigned, err := AssignRoles(players, rng)
			require.NoError(t, err)
			for _, p := range assigned {
				if p.Role == RoleMafia {
					hits[p.ID]++
				}
			}
		}
		for _, p := range players {
			// 期望 1000 次，容忍 ±20%
			assert.InDelta(t, rounds/4, hits[p.ID], rounds/4*0.2, "player %s", p.ID)
		}
	})
}
