package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func newTestMachine(policy TieBreakPolicy) *Machine {
	return NewMachine(Options{
		MinPlayers: 3,
		TieBreak:   policy,
		Seed:       42,
		Now:        func() time.Time { return fixedNow },
	}, nil)
}

// waitingRoom 主持人 N 与若干玩家
func waitingRoom(names ...string) *Room {
	room := NewRoom("ABC123", "N", fixedNow)
	room.ID = "room-1"
	room.Narrator = &Player{ID: "N", Name: "Narrator"}
	for _, n := range names {
		room.Players = append(room.Players, Player{ID: n, Name: n})
	}
	return room
}

type seat struct {
	id   string
	role Role
}

// activeRoom 直接构造指定身份的进行中房间
func activeRoom(phase Phase, seats ...seat) *Room {
	room := NewRoom("ABC123", "N", fixedNow)
	room.ID = "room-1"
	room.Narrator = &Player{ID: "N", Name: "Narrator"}
	room.Status = StatusActive
	room.Phase = phase
	for _, s := range seats {
		room.Players = append(room.Players, Player{ID: s.id, Name: s.id, Role: s.role, IsAlive: boolPtr(true)})
	}
	return room
}

// apply 执行命令并把结果应用到房间
func apply(t *testing.T, room *Room, patch *Patch, err error) *Room {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, patch)
	return patch.Apply(room, fixedNow)
}

func kill(room *Room, id string) {
	for i := range room.Players {
		if room.Players[i].ID == id {
			room.Players[i].IsAlive = boolPtr(false)
		}
	}
}

func player(t *testing.T, room *Room, id string) Player {
	t.Helper()
	p, ok := room.FindPlayer(id)
	require.True(t, ok, "player %s not found", id)
	return p
}

// standardFive 1黑手党 1侦探 1医生 2平民
func standardFive(phase Phase) *Room {
	return activeRoom(phase,
		seat{"M", RoleMafia},
		seat{"Det", RoleDetective},
		seat{"Doc", RoleDoctor},
		seat{"C1", RoleCitizen},
		seat{"C2", RoleCitizen},
	)
}
