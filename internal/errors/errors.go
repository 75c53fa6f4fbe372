package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005
	ErrCanceled         ErrorCode = 1006

	// 房间/游戏错误 (2000-2999)
	ErrRoomNotFound            ErrorCode = 2000
	ErrNotLeader               ErrorCode = 2001
	ErrActorMismatch           ErrorCode = 2002
	ErrInvalidGameState        ErrorCode = 2100
	ErrValidation              ErrorCode = 2200
	ErrActionAlreadyLocked     ErrorCode = 2300
	ErrNoVotesToExecute        ErrorCode = 2301
	ErrCodeGenerationExhausted ErrorCode = 2302
	ErrRevisionConflict        ErrorCode = 2303
	ErrNightActionsIncomplete  ErrorCode = 2400
	ErrRoleConfiguration       ErrorCode = 2500

	// 通信错误 (4000-4999)
	ErrWebSocketConnect ErrorCode = 4000
	ErrWebSocketSend    ErrorCode = 4001
	ErrWebSocketClosed  ErrorCode = 4003
	ErrBrokerConnect    ErrorCode = 4004
	ErrBrokerPublish    ErrorCode = 4005
	ErrMessageFormat    ErrorCode = 4007

	// 存储错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrTransaction     ErrorCode = 5005
	ErrDataIntegrity   ErrorCode = 5006
	ErrCacheConnect    ErrorCode = 5100
	ErrCacheOperation  ErrorCode = 5101

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002

	// 安全错误 (7000-7999)
	ErrAuthentication ErrorCode = 7000
	ErrTokenExpired   ErrorCode = 7002
	ErrTokenInvalid   ErrorCode = 7003
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrAlreadyExists:    "资源已存在",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrCanceled:         "操作已取消",

	// 房间/游戏错误
	ErrRoomNotFound:            "房间不存在",
	ErrNotLeader:               "只有主持人可以执行此操作",
	ErrActorMismatch:           "身份与令牌不匹配",
	ErrInvalidGameState:        "当前游戏状态不允许此操作",
	ErrValidation:              "操作校验失败",
	ErrActionAlreadyLocked:     "夜间行动已锁定",
	ErrNoVotesToExecute:        "没有可执行的投票",
	ErrCodeGenerationExhausted: "无法生成唯一的房间码",
	ErrRevisionConflict:        "房间已被并发修改",
	ErrNightActionsIncomplete:  "夜间行动尚未完成",
	ErrRoleConfiguration:       "角色分配配置错误",

	// 通信错误
	ErrWebSocketConnect: "WebSocket连接失败",
	ErrWebSocketSend:    "WebSocket发送失败",
	ErrWebSocketClosed:  "WebSocket连接已关闭",
	ErrBrokerConnect:    "消息总线连接失败",
	ErrBrokerPublish:    "消息发布失败",
	ErrMessageFormat:    "消息格式错误",

	// 存储错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrTransaction:     "事务处理失败",
	ErrDataIntegrity:   "数据完整性错误",
	ErrCacheConnect:    "缓存连接失败",
	ErrCacheOperation:  "缓存操作失败",

	// 配置错误
	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",

	// 安全错误
	ErrAuthentication: "认证失败",
	ErrTokenExpired:   "令牌已过期",
	ErrTokenInvalid:   "无效的令牌",
}

// Kind 错误类别，供调用方按语义分支
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidState      Kind = "invalid_state"
	KindValidation        Kind = "validation_failure"
	KindConflict          Kind = "conflict"
	KindActionsIncomplete Kind = "actions_incomplete"
	KindConfiguration     Kind = "configuration_error"
	KindInternal          Kind = "internal"
)

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`              // 错误码
	Message string       `json:"message"`           // 错误消息
	Details string       `json:"details,omitempty"` // 详细信息
	Pending []string     `json:"pending,omitempty"` // 未完成的夜间行动
	Cause   error        `json:"-"`                 // 原始错误
	Stack   []StackFrame `json:"-"`                 // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// WithPending 附带未完成的行动列表
func (e *AppError) WithPending(pending []string) *AppError {
	e.Pending = append([]string(nil), pending...)
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			if appErr.Details != "" {
				appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
			} else {
				appErr.Details = strings.Join(details, "; ")
			}
		}
		return appErr
	}

	appErr = New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// As 取出错误链中的AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil || !stderrors.As(err, &appErr) {
		return nil, false
	}
	return appErr, true
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := As(err); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// KindOf 将错误码归类
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	switch GetCode(err) {
	case ErrNotFound, ErrRoomNotFound:
		return KindNotFound
	case ErrNotLeader, ErrActorMismatch, ErrPermissionDenied,
		ErrAuthentication, ErrTokenExpired, ErrTokenInvalid:
		return KindUnauthorized
	case ErrInvalidGameState:
		return KindInvalidState
	case ErrInvalidParam, ErrValidation:
		return KindValidation
	case ErrActionAlreadyLocked, ErrNoVotesToExecute,
		ErrCodeGenerationExhausted, ErrRevisionConflict, ErrAlreadyExists:
		return KindConflict
	case ErrNightActionsIncomplete:
		return KindActionsIncomplete
	case ErrRoleConfiguration, ErrConfigLoad, ErrConfigParse, ErrConfigValidate:
		return KindConfiguration
	default:
		return KindInternal
	}
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	if n > 0 {
		frames := runtime.CallersFrames(pcs[:n])
		for {
			frame, more := frames.Next()

			// 跳过runtime和本包的调用
			if strings.Contains(frame.Function, "runtime.") ||
				strings.Contains(frame.Function, "github.com/wfunc/mafia-game/internal/errors") {
				if !more {
					break
				}
				continue
			}

			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})

			if !more {
				break
			}

			// 只保留前10个栈帧
			if len(e.Stack) >= 10 {
				break
			}
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam:
		return 400 // Bad Request
	case e.Code == ErrValidation:
		return 422 // Unprocessable Entity
	case e.Code == ErrNotFound || e.Code == ErrRoomNotFound:
		return 404 // Not Found
	case e.Code == ErrPermissionDenied || e.Code == ErrNotLeader || e.Code == ErrActorMismatch:
		return 403 // Forbidden
	case e.Code == ErrTimeout:
		return 408 // Request Timeout
	case e.Code == ErrAlreadyExists || (e.Code >= 2100 && e.Code <= 2499):
		return 409 // Conflict
	case e.Code >= 7000 && e.Code <= 7003:
		return 401 // Unauthorized
	case e.Code >= 5000 && e.Code <= 5999:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrTimeout,
		ErrRevisionConflict,
		ErrWebSocketConnect,
		ErrBrokerConnect,
		ErrDatabaseConnect,
		ErrCacheConnect:
		return true
	default:
		return false
	}
}

// IsCritical 判断是否为严重错误
func IsCritical(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrDatabaseConnect,
		ErrConfigLoad,
		ErrDataIntegrity,
		ErrRoleConfiguration:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
