package middleware

import (
	"net/http"
	"strings"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// AuthMiddleware 认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取token
		authHeader := c.GetHeader("Authorization")

		// 检查Authorization头
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "未授权访问",
				"code":    "MISSING_TOKEN",
			})
			return
		}

		// 提取token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "未授权访问",
				"code":    "MISSING_TOKEN",
			})
			return
		}

		// 解析token
		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Logger.Error().Err(err).Msg("Token验证失败")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "无效的token: " + err.Error(),
				"code":    "INVALID_TOKEN",
			})
			return
		}

		// 检查必要字段
		if claims["id"] == nil || claims["role"] == nil || claims["username"] == nil {
			utils.Logger.Warn().Interface("claims", claims).Msg("Token负载缺少必要字段")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Token缺少必要字段",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		// 将用户信息存储到上下文
		c.Set("user", claims)

		c.Next()
	}
}

// PermissionMiddleware 资源级权限校验中间件
func PermissionMiddleware(resource string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取用户信息
		userClaims, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "用户未认证",
				"code":    "UNAUTHENTICATED",
			})
			return
		}

		// 处理不同类型的 userClaims
		var claims map[string]interface{}
		switch v := userClaims.(type) {
		case jwt.MapClaims:
			claims = make(map[string]interface{})
			for key, val := range v {
				claims[key] = val
			}
		case map[string]interface{}:
			claims = v
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "无法处理用户信息格式",
				"code":    "INVALID_CLAIMS",
			})
			return
		}

		// 获取角色和用户名
		roleStr, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "用户角色信息无效",
				"code":    "INVALID_ROLE",
			})
			return
		}
		role := models.UserRole(roleStr)

		username, _ := claims["username"].(string)

		// 检查权限
		if !utils.HasPermission(role, resource, action) {
			utils.Logger.Info().
				Str("username", username).
				Str("role", string(role)).
				Str("resource", resource).
				Str("action", action).
				Msg("权限不足")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "权限不足",
				"code":    "INSUFFICIENT_PERMISSION",
			})
			return
		}

		c.Next()
	}
}
