package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/utils"
)

// IdentityRequest 申请身份请求
type IdentityRequest struct {
	Name string `json:"name"`
}

// IdentityHandler 玩家身份处理器
type IdentityHandler struct {
	jwt *utils.JWTManager
}

// NewIdentityHandler 创建身份处理器
func NewIdentityHandler(jwt *utils.JWTManager) *IdentityHandler {
	return &IdentityHandler{jwt: jwt}
}

// Issue 生成随机玩家ID和对应令牌
// @Summary 申请玩家身份
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body IdentityRequest false "昵称"
// @Success 201 {object} Response
// @Router /api/v1/identity [post]
func (h *IdentityHandler) Issue(c *gin.Context) {
	var req IdentityRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	identity, err := h.jwt.NewIdentity(strings.TrimSpace(req.Name))
	if err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrAuthentication))
		return
	}
	respondOK(c, http.StatusCreated, identity)
}
