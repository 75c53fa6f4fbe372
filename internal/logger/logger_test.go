package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("unknown"))
}

func TestSetLevel(t *testing.T) {
	original := Level()
	defer atomicLevel.SetLevel(original)

	SetLevel("error")
	assert.Equal(t, zapcore.ErrorLevel, Level())

	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, Level())
}

func TestGetLoggerBeforeInit(t *testing.T) {
	// 未初始化时也必须返回可用的日志器
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, GetModuleLogger("room"))
	assert.NotPanics(t, func() {
		LogRoomEvent("room_created", "ABC123", 1)
	})
}
