package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/repository"
	"github.com/luminchurch/chms_end/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// 需要记录的HTTP方法
var loggedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// 不需要记录的路径
var excludedPaths = map[string]bool{
	"/api/health":     true,
	"/api/db-status":  true,
	"/api/auth/login": true,
}

// OperationLoggerMiddleware 操作日志记录中间件
// 把所有写操作连同操作人记入apiOperationLogs集合
func OperationLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 检查是否需要记录此操作
		if !shouldLogOperation(c) {
			c.Next()
			return
		}

		startTime := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// 读取并重置请求体
		var requestBody interface{}
		if c.Request.Body != nil {
			requestBodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBodyBytes))
				if strings.Contains(c.Request.Header.Get("Content-Type"), "application/json") {
					if err := json.Unmarshal(requestBodyBytes, &requestBody); err != nil {
						requestBody = string(requestBodyBytes)
					}
				} else {
					requestBody = string(requestBodyBytes)
				}
			}
		}

		// 处理请求
		c.Next()

		// 提取操作人信息
		operatorID, operatorName, operatorRole := extractUserInfo(c)

		// 获取错误信息（如果有）
		var errorMessage string
		if len(c.Errors) > 0 {
			errorMessage = c.Errors.String()
		}

		requestId, _ := c.Get("requestId")
		requestIdStr, _ := requestId.(string)

		// 构建操作日志
		operationLog := models.OperationLog{
			RequestID:     requestIdStr,
			Method:        method,
			Path:          path,
			OperatorID:    operatorID,
			OperatorName:  operatorName,
			OperatorRole:  operatorRole,
			RequestBody:   sanitizeData(requestBody),
			StatusCode:    c.Writer.Status(),
			Success:       c.Writer.Status() < http.StatusBadRequest,
			ErrorMessage:  errorMessage,
			OperationTime: startTime,
			ResponseTime:  time.Since(startTime).Milliseconds(),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		}

		// 保存操作日志，失败只记日志
		if err := saveOperationLog(&operationLog); err != nil {
			utils.Logger.Error().Err(err).Msg("保存操作日志失败")
		}
	}
}

// shouldLogOperation 检查是否需要记录此操作
func shouldLogOperation(c *gin.Context) bool {
	if excludedPaths[c.Request.URL.Path] {
		return false
	}
	return loggedMethods[c.Request.Method]
}

// extractUserInfo 从上下文中提取用户信息
func extractUserInfo(c *gin.Context) (string, string, string) {
	// 默认匿名用户
	operatorID := "anonymous"
	operatorName := "匿名用户"
	operatorRole := "UNKNOWN"

	if userClaims, exists := c.Get("user"); exists {
		if v, ok := userClaims.(jwt.MapClaims); ok {
			if id, ok := v["id"].(string); ok {
				operatorID = id
			}
			if username, ok := v["username"].(string); ok {
				operatorName = username
			}
			if role, ok := v["role"].(string); ok {
				operatorRole = role
			}
		}
	}

	return operatorID, operatorName, operatorRole
}

// sanitizeData 清理数据中的敏感信息
func sanitizeData(data interface{}) interface{} {
	if data == nil {
		return nil
	}

	if m, ok := data.(map[string]interface{}); ok {
		sanitized := make(map[string]interface{})
		for k, v := range m {
			switch strings.ToLower(k) {
			case "password", "token", "authorization", "secret", "key":
				sanitized[k] = "******"
			default:
				sanitized[k] = sanitizeData(v)
			}
		}
		return sanitized
	}

	if s, ok := data.([]interface{}); ok {
		sanitized := make([]interface{}, len(s))
		for i, v := range s {
			sanitized[i] = sanitizeData(v)
		}
		return sanitized
	}

	return data
}

// saveOperationLog 保存操作日志到数据库
func saveOperationLog(log *models.OperationLog) error {
	collection := repository.Collection(repository.ApiOperationLogsCollection)
	_, err := collection.InsertOne(context.Background(), *log)
	return err
}
