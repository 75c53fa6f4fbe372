package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(m *AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware(), m.OptionalAuth())
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := GetPlayerID(c)
		if err := CheckActor(c, c.Query("actor")); err != nil {
			appErr, _ := apperrors.As(err)
			c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, RequestID(c)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"playerId": id, "authenticated": IsAuthenticated(c)})
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", "mafia-game", time.Hour)
	engine := newTestEngine(NewAuthMiddleware(jwtManager))
	token, _, err := jwtManager.GenerateToken("p1", "Ann")
	require.NoError(t, err)

	t.Run("无令牌放行", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami?actor=anyone", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":false`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("有效令牌", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami?actor=p1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"playerId":"p1"`)
	})

	t.Run("令牌与操作者不一致", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami?actor=p2&token="+token, nil)
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("无效令牌", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Access-Token", "garbage")
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("panic恢复", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
