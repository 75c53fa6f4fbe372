package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/logger"
)

const (
	ctxRequestID    = "requestID"
	headerRequestID = "X-Request-ID"
)

// RequestIDMiddleware 为每个请求分配ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestID 获取当前请求ID
func RequestID(c *gin.Context) string {
	if v, ok := c.Get(ctxRequestID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// LoggerMiddleware 使用zap记录请求
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// RecoveryMiddleware 捕获panic并返回统一错误
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r, debug.Stack())
				appErr := apperrors.New(apperrors.ErrUnknown)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.NewErrorResponse(appErr, RequestID(c)))
			}
		}()
		c.Next()
	}
}
