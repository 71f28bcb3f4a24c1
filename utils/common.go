package utils

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// IsValidPhone 验证手机号是否有效
func IsValidPhone(phone string) bool {
	pattern := `^1[3-9]\d{9}$`
	matched, _ := regexp.MatchString(pattern, phone)
	return matched
}

// LoginUser 当前登录用户信息
type LoginUser struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Username string `json:"name"`
}

// GetUser 从请求上下文中取当前登录用户
func GetUser(c *gin.Context) (*LoginUser, error) {
	currentUser, exists := c.Get("user")
	if !exists {
		return nil, CreateUnauthorizedError()
	}

	// 处理不同类型的 claims
	var claims map[string]interface{}
	switch v := currentUser.(type) {
	case jwt.MapClaims:
		claims = make(map[string]interface{})
		for key, val := range v {
			claims[key] = val
		}
	case map[string]interface{}:
		claims = v
	default:
		// 尝试通过 JSON 序列化/反序列化转换
		data, err := json.Marshal(currentUser)
		if err != nil {
			return nil, fmt.Errorf("序列化用户信息失败: %v", err)
		}
		if err := json.Unmarshal(data, &claims); err != nil {
			return nil, fmt.Errorf("反序列化用户信息失败: %v", err)
		}
	}

	id, ok := claims["id"].(string)
	if !ok {
		return nil, fmt.Errorf("无效的用户ID")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, fmt.Errorf("无效的用户角色")
	}

	username, ok := claims["username"].(string)
	if !ok {
		if name, ok := claims["name"].(string); ok {
			username = name
		} else {
			return nil, fmt.Errorf("无效的用户名")
		}
	}

	return &LoginUser{
		ID:       id,
		Role:     role,
		Username: username,
	}, nil
}
