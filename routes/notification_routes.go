package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/luminchurch/chms_end/controllers"
	"github.com/luminchurch/chms_end/middleware"
)

// RegisterNotificationRoutes 注册站内通知路由
func RegisterNotificationRoutes(router *gin.Engine) {
	notificationGroup := router.Group("/api/notifications")
	notificationGroup.Use(middleware.AuthMiddleware())

	notificationGroup.GET("", middleware.PermissionMiddleware("notifications", "read"), controllers.GetMyNotifications)
	notificationGroup.PATCH("/:id/read", middleware.PermissionMiddleware("notifications", "update"), controllers.MarkNotificationRead)
}
