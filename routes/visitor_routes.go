package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/luminchurch/chms_end/controllers"
	"github.com/luminchurch/chms_end/middleware"
)

// RegisterVisitorRoutes 注册新朋友生命周期相关路由
// 每条生命周期流转对应一个独立端点，前端按快照中的 allowedEvents 渲染入口
func RegisterVisitorRoutes(router *gin.Engine) {
	visitorGroup := router.Group("/api/visitors")
	visitorGroup.Use(middleware.AuthMiddleware())

	// 登记与查询
	visitorGroup.POST("", middleware.PermissionMiddleware("visitors", "create"), controllers.CreateVisitor)
	visitorGroup.GET("", middleware.PermissionMiddleware("visitors", "read"), controllers.ListVisitors)
	visitorGroup.GET("/:id", middleware.PermissionMiddleware("visitors", "read"), controllers.GetVisitor)
	visitorGroup.GET("/:id/followUps", middleware.PermissionMiddleware("visitors", "read"), controllers.GetVisitorFollowUps)
	visitorGroup.GET("/:id/assignment", middleware.PermissionMiddleware("visitors", "read"), controllers.GetVisitorAssignment)

	// 跟进记录追加
	visitorGroup.POST("/:id/followUps", middleware.PermissionMiddleware("visitors", "update"), controllers.AddVisitorFollowUp)

	// 生命周期流转
	visitorGroup.POST("/:id/assign", middleware.PermissionMiddleware("visitors", "transition"), controllers.AssignVisitor)
	visitorGroup.POST("/:id/reassign", middleware.PermissionMiddleware("visitors", "transition"), controllers.ReassignVisitor)
	visitorGroup.POST("/:id/markReady", middleware.PermissionMiddleware("visitors", "transition"), controllers.MarkVisitorReady)
	visitorGroup.POST("/:id/unmark", middleware.PermissionMiddleware("visitors", "transition"), controllers.UnmarkVisitorReady)
	visitorGroup.POST("/:id/archive", middleware.PermissionMiddleware("visitors", "transition"), controllers.ArchiveVisitor)
	visitorGroup.POST("/:id/restore", middleware.PermissionMiddleware("visitors", "transition"), controllers.RestoreVisitor)
	visitorGroup.POST("/:id/close", middleware.PermissionMiddleware("visitors", "transition"), controllers.CloseVisitor)
	visitorGroup.POST("/:id/integrate", middleware.PermissionMiddleware("visitors", "transition"), controllers.IntegrateVisitor)
}
