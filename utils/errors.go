package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 生命周期相关错误码
const (
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeGuardNotSatisfied     = "GUARD_NOT_SATISFIED"
	ErrCodeUnknownAssignee       = "UNKNOWN_ASSIGNEE"
	ErrCodeInvalidRecord         = "INVALID_RECORD"
	ErrCodeDistrictRequired      = "DISTRICT_REQUIRED"
	ErrCodeDownstreamUnavailable = "DOWNSTREAM_UNAVAILABLE"
	ErrCodeNotFound              = "RESOURCE_NOT_FOUND"
)

// ApiError 自定义API错误
type ApiError struct {
	StatusCode int
	Message    string
	ErrorCode  string
}

// Error 实现error接口
func (e *ApiError) Error() string {
	return e.Message
}

// NewApiError 创建API错误
func NewApiError(message string, statusCode int, errorCode string) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Message:    message,
		ErrorCode:  errorCode,
	}
}

// CreateNotFoundError 创建资源不存在错误
func CreateNotFoundError(resource string) *ApiError {
	return NewApiError(resource+"不存在", http.StatusNotFound, ErrCodeNotFound)
}

// CreateUnauthorizedError 创建未授权错误
func CreateUnauthorizedError() *ApiError {
	return NewApiError("未授权访问", http.StatusUnauthorized, "UNAUTHORIZED")
}

// CreateForbiddenError 创建权限不足错误
func CreateForbiddenError() *ApiError {
	return NewApiError("权限不足", http.StatusForbidden, "FORBIDDEN")
}

// CreateBadRequestError 创建错误请求错误
func CreateBadRequestError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, "BAD_REQUEST")
}

// CreateInvalidTransitionError 当前状态下不允许该操作
func CreateInvalidTransitionError(state string, event string) *ApiError {
	return NewApiError(
		fmt.Sprintf("当前状态 [%s] 不允许执行操作 [%s]", state, event),
		http.StatusConflict,
		ErrCodeInvalidTransition,
	)
}

// CreateGuardNotSatisfiedError 流转前置条件不满足，message需指明未满足的具体条件
func CreateGuardNotSatisfiedError(message string) *ApiError {
	return NewApiError(message, http.StatusUnprocessableEntity, ErrCodeGuardNotSatisfied)
}

// CreateUnknownAssigneeError 跟进人不存在或未启用
func CreateUnknownAssigneeError(assigneeId string) *ApiError {
	return NewApiError(
		fmt.Sprintf("跟进人 [%s] 不存在或未启用", assigneeId),
		http.StatusBadRequest,
		ErrCodeUnknownAssignee,
	)
}

// CreateInvalidRecordError 跟进记录字段校验失败
func CreateInvalidRecordError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, ErrCodeInvalidRecord)
}

// CreateDistrictRequiredError 转入会友必须指定教区
func CreateDistrictRequiredError() *ApiError {
	return NewApiError("转入会友必须指定教区", http.StatusBadRequest, ErrCodeDistrictRequired)
}

// CreateDownstreamUnavailableError 下游服务不可用
func CreateDownstreamUnavailableError(service string, err error) *ApiError {
	return NewApiError(
		fmt.Sprintf("%s服务暂不可用: %v", service, err),
		http.StatusBadGateway,
		ErrCodeDownstreamUnavailable,
	)
}

// IsErrorCode 判断错误是否为指定错误码的ApiError
func IsErrorCode(err error, code string) bool {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == code
	}
	return false
}

// HandleError 处理错误并返回适当的响应
func HandleError(c *gin.Context, err error) {
	if c == nil {
		return
	}
	// 记录错误
	errorMessage := err.Error()
	Logger.Error().Str("path", c.Request.URL.Path).Str("method", c.Request.Method).Msg("API错误: " + errorMessage)

	// 记录详细错误信息
	LogError(err, map[string]interface{}{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}, errorMessage)

	// 处理API错误
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		response := gin.H{"error": apiErr.Message}
		if apiErr.ErrorCode != "" {
			response["code"] = apiErr.ErrorCode
		}
		c.JSON(apiErr.StatusCode, response)
		return
	}

	// 其他未预期的错误
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   errorMessage,
		"success": false,
	})
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, data interface{}, message string, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := gin.H{"success": true}
	if data != nil {
		response["data"] = data
	}
	if message != "" {
		response["message"] = message
	}

	c.JSON(code, response)
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, message string, statusCode int) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}
