package game

import (
	"fmt"
	"math/rand"
)

// 阶段切换旁白
var (
	toNightMessages = []string{
		"🌙 Night falls over the town... The streets grow quiet as shadows begin to move.",
		"🌃 Darkness descends upon the village. The Mafia emerges from hiding.",
		"🌌 The town sleeps, but evil never rests. Night has begun.",
		"🌙 Under the cover of darkness, the Mafia begins their hunt.",
	}
	toDayMessages = []string{
		"🌅 Dawn breaks over the town. What secrets did the night reveal?",
		"☀️ Morning light exposes the night's events. The town gathers to learn their fate.",
		"🌄 A new day begins. The townspeople emerge to discover what happened in the darkness.",
		"🌞 The sun rises, bringing truth and consequence to light.",
	}
)

// 出局旁白模板，%[1]s 为玩家名
var (
	protectionStories = []string{
		"🛡️ The town awakens to a miracle! %[1]s was marked for death, but the doctor's watchful eyes and steady hands saved them from the shadows.",
		"✨ Fortune smiled upon %[1]s! The doctor's intervention turned what should have been a tragedy into hope.",
		"⚕️ The Mafia crept through the darkness toward %[1]s, but found only empty air. The doctor had spirited them away to safety.",
		"🙏 %[1]s draws breath this morning only by grace of the doctor's protection. The town has been spared a loss.",
	}
	mafiaEliminationStories = []string{
		"💀 The town wakes to find %[1]s cold and still. The Mafia's work is done.",
		"⚰️ %[1]s did not survive the night. Their silence will haunt the town forever.",
		"🕯️ The morning reveals tragedy: %[1]s has been claimed by the darkness.",
		"💔 %[1]s's house stands empty this morning. The Mafia has struck again.",
	}
	dayEliminationStories = []string{
		"⚖️ The town has spoken! %[1]s was cast out by majority decision.",
		"🗳️ After heated debate, the townspeople chose %[1]s's fate. Justice... or mistake?",
		"👥 The voices of the town rang as one: %[1]s must go. Let history judge this decision.",
		"🏛️ Democracy has decided: %[1]s was eliminated by the will of the people.",
	}
	noEliminationStories = map[VoteType][]string{
		VoteDay: {
			"🤝 The town could not agree. Everyone goes home unharmed, for now.",
			"🔇 The vote ends in silence. No one is cast out today.",
		},
		VoteMafia: {
			"🌫️ The night passes quietly. Nobody was harmed.",
			"🕊️ The Mafia hesitated in the dark. The town wakes up whole.",
		},
	}
)

// Narrator 负责挑选旁白文案
type Narrator struct {
	rng *rand.Rand
}

func (n *Narrator) pick(pool []string) string {
	return pool[n.rng.Intn(len(pool))]
}

// PhaseMessage 进入某阶段时的旁白
func (n *Narrator) PhaseMessage(next Phase) string {
	if next == PhaseNight {
		return n.pick(toNightMessages)
	}
	return n.pick(toDayMessages)
}

// Protection 医生救人成功
func (n *Narrator) Protection(name string) string {
	return fmt.Sprintf(n.pick(protectionStories), name)
}

// Elimination 玩家出局
func (n *Narrator) Elimination(voteType VoteType, name string) string {
	if voteType == VoteMafia {
		return fmt.Sprintf(n.pick(mafiaEliminationStories), name)
	}
	return fmt.Sprintf(n.pick(dayEliminationStories), name)
}

// NoElimination 无人出局
func (n *Narrator) NoElimination(voteType VoteType) string {
	return n.pick(noEliminationStories[voteType])
}

func phaseHistory(next Phase, ts int64) HistoryEvent {
	if next == PhaseNight {
		return HistoryEvent{Timestamp: ts, Event: EventPhaseNight, Description: "Night phase began"}
	}
	return HistoryEvent{Timestamp: ts, Event: EventPhaseDay, Description: "Day phase began"}
}
