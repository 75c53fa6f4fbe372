package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/utils"
)

const (
	ctxPlayerID = "playerID"
	ctxToken    = "token"
)

// AuthMiddleware 玩家身份中间件
type AuthMiddleware struct {
	jwt *utils.JWTManager
}

// NewAuthMiddleware 创建身份中间件
func NewAuthMiddleware(jwtManager *utils.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwt: jwtManager,
	}
}

// OptionalAuth 携带令牌时必须有效，未携带时按普通身份字符串处理
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			code := apperrors.ErrTokenInvalid
			if err == utils.ErrExpiredToken {
				code = apperrors.ErrTokenExpired
			}
			appErr := apperrors.Wrap(err, code)
			c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, RequestID(c)))
			return
		}

		c.Set(ctxPlayerID, claims.PlayerID())
		c.Set(ctxToken, token)
		c.Next()
	}
}

// extractToken 从请求中提取令牌
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	// 1. 从Authorization Header获取 (Bearer Token)
	bearerToken := c.GetHeader("Authorization")
	if bearerToken != "" {
		parts := strings.Split(bearerToken, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// 2. 从X-Access-Token Header获取
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	// 3. 从Query参数获取（浏览器WebSocket无法设置Header）
	if token := c.Query("token"); token != "" {
		return token
	}

	return ""
}

// GetPlayerID 从上下文获取令牌中的玩家ID
func GetPlayerID(c *gin.Context) (string, bool) {
	if v, exists := c.Get(ctxPlayerID); exists {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// IsAuthenticated 检查是否携带有效令牌
func IsAuthenticated(c *gin.Context) bool {
	_, ok := GetPlayerID(c)
	return ok
}

// CheckActor 携带令牌时，请求中的操作者必须是令牌持有者
func CheckActor(c *gin.Context, actorID string) error {
	playerID, ok := GetPlayerID(c)
	if !ok || playerID == actorID {
		return nil
	}
	return apperrors.Newf(apperrors.ErrActorMismatch,
		"token identity %s cannot act as %s", playerID, actorID)
}
