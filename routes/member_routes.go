package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/luminchurch/chms_end/controllers"
	"github.com/luminchurch/chms_end/middleware"
)

// RegisterMemberRoutes 注册会友与教区目录路由
func RegisterMemberRoutes(router *gin.Engine) {
	memberGroup := router.Group("/api/members")
	memberGroup.Use(middleware.AuthMiddleware())
	memberGroup.GET("/assignable", middleware.PermissionMiddleware("members", "read"), controllers.GetAssignableMembers)

	districtGroup := router.Group("/api/districts")
	districtGroup.Use(middleware.AuthMiddleware())
	districtGroup.GET("", middleware.PermissionMiddleware("districts", "read"), controllers.GetDistricts)
	districtGroup.GET("/:districtId/units", middleware.PermissionMiddleware("districts", "read"), controllers.GetDistrictUnits)
}
