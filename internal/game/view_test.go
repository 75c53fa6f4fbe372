package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolesByID(room *Room) map[string]Role {
	out := map[string]Role{}
	for _, p := range room.Players {
		out[p.ID] = p.Role
	}
	return out
}

func TestViewFor(t *testing.T) {
	room := activeRoom(PhaseNight,
		seat{"M1", RoleMafia},
		seat{"M2", RoleMafia},
		seat{"Det", RoleDetective},
		seat{"Doc", RoleDoctor},
		seat{"C1", RoleCitizen},
		seat{"C2", RoleCitizen},
		seat{"C3", RoleCitizen},
		seat{"C4", RoleCitizen},
	)
	kill(room, "C4")
	room.Votes = []Vote{{VoterID: "M1", TargetID: "C1", VoteType: VoteMafia}}
	room.NightActions = []NightAction{
		{PlayerID: "Det", Action: ActionInvestigate, TargetID: "M1", IsLocked: true},
		{PlayerID: "Doc", Action: ActionProtect, TargetID: "C1", IsLocked: true},
	}

	t.Run("主持人可见全部", func(t *testing.T) {
		view := ViewFor(room, "N")
		assert.Equal(t, room, view)
	})

	t.Run("平民只看到自己和出局玩家", func(t *testing.T) {
		view := ViewFor(room, "C1")
		roles := rolesByID(view)
		assert.Equal(t, RoleCitizen, roles["C1"])
		assert.Equal(t, RoleCitizen, roles["C4"], "出局玩家身份公开")
		assert.Empty(t, roles["M1"])
		assert.Empty(t, roles["Det"])
		assert.Empty(t, view.NightActions)
		assert.Empty(t, view.Votes)
	})

	t.Run("黑手党互相可见", func(t *testing.T) {
		view := ViewFor(room, "M2")
		roles := rolesByID(view)
		assert.Equal(t, RoleMafia, roles["M1"])
		assert.Empty(t, roles["Doc"])
		assert.Len(t, view.Votes, 1)
	})

	t.Run("只看到自己的夜间行动", func(t *testing.T) {
		view := ViewFor(room, "Det")
		require.Len(t, view.NightActions, 1)
		assert.Equal(t, "Det", view.NightActions[0].PlayerID)
	})

	t.Run("不修改原房间", func(t *testing.T) {
		ViewFor(room, "C1")
		assert.Equal(t, RoleMafia, rolesByID(room)["M1"])
		assert.Len(t, room.NightActions, 2)
	})

	t.Run("结束后全部公开", func(t *testing.T) {
		finished := room.Clone()
		finished.Status = StatusFinished
		assert.Equal(t, RoleMafia, rolesByID(ViewFor(finished, "C1"))["M1"])
	})
}

func TestPatchApply(t *testing.T) {
	room := standardFive(PhaseDay)
	room.History = []HistoryEvent{{Timestamp: 1, Event: EventGameStarted}}

	t.Run("空补丁", func(t *testing.T) {
		var p *Patch
		assert.True(t, p.IsEmpty())
		assert.True(t, (&Patch{}).IsEmpty())
		assert.False(t, (&Patch{Phase: ptr(PhaseNight)}).IsEmpty())
	})

	t.Run("应用后不影响原房间", func(t *testing.T) {
		players := clonePlayers(room.Players)
		players[0].IsAlive = boolPtr(false)
		next := (&Patch{
			Players:       &players,
			Votes:         &[]Vote{},
			AppendHistory: []HistoryEvent{{Timestamp: 2, Event: EventPhaseNight}},
		}).Apply(room, fixedNow)

		assert.False(t, next.Players[0].Alive())
		assert.True(t, room.Players[0].Alive())
		assert.Len(t, next.History, 2)
		assert.Len(t, room.History, 1)

		players[1].Name = "mutated"
		assert.Equal(t, "Det", next.Players[1].Name, "补丁数据被复制")
	})
}

func TestGenerateRoomCode(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := GenerateRoomCode(rng, 6)
		assert.True(t, ValidRoomCode(code, 6), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)

	assert.False(t, ValidRoomCode("abc123", 6))
	assert.False(t, ValidRoomCode("ABC12", 6))
	assert.Len(t, GenerateRoomCode(rng, 0), DefaultRoomCodeLength)
}
