package game

// ViewFor 按观察者裁剪房间信息
//   - 主持人或游戏结束后可见全部
//   - 玩家可见自己的身份、已出局玩家的身份，黑手党互相可见
//   - 夜间行动只对行动者本人可见，黑手党投票只对黑手党可见
func ViewFor(room *Room, viewerID string) *Room {
	view := room.Clone()
	if room.IsLeader(viewerID) || room.Status == StatusFinished {
		return view
	}

	viewer, isPlayer := room.FindPlayer(viewerID)
	viewerIsMafia := isPlayer && viewer.Role == RoleMafia

	for i := range view.Players {
		p := &view.Players[i]
		if p.ID == viewerID || !p.Assigned() {
			continue
		}
		if p.IsAlive != nil && !*p.IsAlive {
			continue
		}
		if viewerIsMafia && p.Role == RoleMafia {
			continue
		}
		p.Role = ""
	}

	actions := make([]NightAction, 0, len(view.NightActions))
	for _, a := range view.NightActions {
		if a.PlayerID == viewerID {
			actions = append(actions, a)
		}
	}
	view.NightActions = actions

	votes := make([]Vote, 0, len(view.Votes))
	for _, v := range view.Votes {
		if v.VoteType == VoteMafia && !viewerIsMafia {
			continue
		}
		votes = append(votes, v)
	}
	view.Votes = votes

	return view
}
