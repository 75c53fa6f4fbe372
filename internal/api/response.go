package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/logger"
	"github.com/wfunc/mafia-game/internal/middleware"
	"go.uber.org/zap"
)

// Response 成功响应
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError 按错误码渲染错误响应
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.LogError(err, "请求处理失败",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.RequestID(c)))
	}
	c.JSON(status, apperrors.NewErrorResponse(appErr, middleware.RequestID(c)))
}

// bindJSON 解析请求体，失败时直接写入 400
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return false
	}
	return true
}

// authorize 携带令牌时校验操作者身份，失败时写入响应
func authorize(c *gin.Context, actorIDs ...string) bool {
	for _, id := range actorIDs {
		if err := middleware.CheckActor(c, id); err != nil {
			respondError(c, err)
			return false
		}
	}
	return true
}

// viewerID 查询参数中的观察者，未提供时使用令牌身份
func viewerID(c *gin.Context) string {
	if id := c.Query("playerId"); id != "" {
		return id
	}
	id, _ := middleware.GetPlayerID(c)
	return id
}
