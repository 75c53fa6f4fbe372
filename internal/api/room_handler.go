package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/service"
)

// RoomHandler 房间处理器
type RoomHandler struct {
	rooms service.RoomService
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(rooms service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// CreateRoom 创建房间
// @Summary 创建房间
// @Tags Rooms
// @Accept json
// @Produce json
// @Param request body service.CreateRoomRequest true "主持人"
// @Success 201 {object} Response
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req service.CreateRoomRequest
	if !bindJSON(c, &req) || !authorize(c, req.LeaderID) {
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, room)
}

// GetRoom 按房间码读取完整房间
// @Summary 读取房间
// @Tags Rooms
// @Produce json
// @Param code path string true "房间码"
// @Success 200 {object} Response
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/rooms/{code} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoomByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	if room == nil {
		respondError(c, apperrors.New(apperrors.ErrRoomNotFound, "Room not found"))
		return
	}
	respondOK(c, http.StatusOK, room)
}

// GetRoomView 按观察者裁剪后的房间
// @Summary 读取玩家视角的房间
// @Tags Rooms
// @Produce json
// @Param code path string true "房间码"
// @Param playerId query string false "观察者"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/view [get]
func (h *RoomHandler) GetRoomView(c *gin.Context) {
	viewer := viewerID(c)
	if !authorize(c, viewer) {
		return
	}

	room, err := h.rooms.GetRoomView(c.Request.Context(), c.Param("code"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// JoinRoom 加入房间
// @Summary 加入房间
// @Tags Rooms
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.JoinRoomRequest true "玩家"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/join [post]
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req service.JoinRoomRequest
	if !bindJSON(c, &req) || !authorize(c, req.PlayerID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.JoinRoom(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// TransferLeadership 转让主持人
// @Summary 转让主持人
// @Tags Rooms
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.TransferLeadershipRequest true "新主持人"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/leader [post]
func (h *RoomHandler) TransferLeadership(c *gin.Context) {
	var req service.TransferLeadershipRequest
	if !bindJSON(c, &req) || !authorize(c, req.CurrentLeaderID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.TransferLeadership(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// RemovePlayer 移除玩家
// @Summary 移除玩家
// @Tags Rooms
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param playerId path string true "玩家"
// @Param request body service.RemovePlayerRequest true "主持人"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/players/{playerId} [delete]
func (h *RoomHandler) RemovePlayer(c *gin.Context) {
	var req service.RemovePlayerRequest
	if !bindJSON(c, &req) || !authorize(c, req.LeaderID) {
		return
	}
	req.Code = c.Param("code")
	req.PlayerID = c.Param("playerId")

	room, err := h.rooms.RemovePlayer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// StartGame 开始游戏
// @Summary 开始游戏并分配身份
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.StartGameRequest true "主持人"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/start [post]
func (h *RoomHandler) StartGame(c *gin.Context) {
	var req service.StartGameRequest
	if !bindJSON(c, &req) || !authorize(c, req.LeaderID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.StartGame(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// AdvancePhase 切换昼夜
// @Summary 切换阶段
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.AdvancePhaseRequest true "主持人"
// @Success 200 {object} Response
// @Failure 409 {object} apperrors.ErrorResponse "夜间行动未完成"
// @Router /api/v1/rooms/{code}/phase [post]
func (h *RoomHandler) AdvancePhase(c *gin.Context) {
	var req service.AdvancePhaseRequest
	if !bindJSON(c, &req) || !authorize(c, req.LeaderID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.AdvancePhase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// CastVote 投票
// @Summary 投票
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.CastVoteRequest true "投票"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/votes [post]
func (h *RoomHandler) CastVote(c *gin.Context) {
	var req service.CastVoteRequest
	if !bindJSON(c, &req) || !authorize(c, req.VoterID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.CastVote(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// ExecuteVotes 结算投票
// @Summary 结算投票
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.ExecuteVotesRequest true "主持人"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/votes/execute [post]
func (h *RoomHandler) ExecuteVotes(c *gin.Context) {
	var req service.ExecuteVotesRequest
	if !bindJSON(c, &req) || !authorize(c, req.LeaderID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.ExecuteVotes(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// PerformNightAction 夜间行动
// @Summary 提交夜间行动
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.NightActionRequest true "行动"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/night-actions [post]
func (h *RoomHandler) PerformNightAction(c *gin.Context) {
	var req service.NightActionRequest
	if !bindJSON(c, &req) || !authorize(c, req.PlayerID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.PerformNightAction(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// EndGame 主持人结束游戏
// @Summary 结束游戏
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "房间码"
// @Param request body service.EndGameRequest true "主持人"
// @Success 200 {object} Response
// @Router /api/v1/rooms/{code}/end [post]
func (h *RoomHandler) EndGame(c *gin.Context) {
	var req service.EndGameRequest
	if !bindJSON(c, &req) || !authorize(c, req.LeaderID) {
		return
	}
	req.Code = c.Param("code")

	room, err := h.rooms.EndGame(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, room)
}

// GetInvestigation 侦探查验结果
// @Summary 读取查验结果
// @Tags Game
// @Produce json
// @Param code path string true "房间码"
// @Param playerId query string false "侦探"
// @Success 200 {object} Response "无结果时 data 为空"
// @Router /api/v1/rooms/{code}/investigation [get]
func (h *RoomHandler) GetInvestigation(c *gin.Context) {
	playerID := viewerID(c)
	if playerID == "" {
		respondError(c, apperrors.New(apperrors.ErrInvalidParam, "playerId is required"))
		return
	}
	if !authorize(c, playerID) {
		return
	}

	result, err := h.rooms.GetNightActionResult(c.Request.Context(), c.Param("code"), playerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
