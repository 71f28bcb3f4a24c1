package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/luminchurch/chms_end/controllers"
	"github.com/luminchurch/chms_end/middleware"
)

// RegisterAuthRoutes 注册认证相关路由
func RegisterAuthRoutes(router *gin.Engine) {
	authGroup := router.Group("/api/auth")

	authGroup.POST("/login", controllers.Login)
	authGroup.POST("/register", controllers.Register)

	authGroup.GET("/me", middleware.AuthMiddleware(), controllers.GetCurrentUser)
	authGroup.POST("/approve", middleware.AuthMiddleware(), middleware.PermissionMiddleware("users", "approve"), controllers.ApproveUser)
}
