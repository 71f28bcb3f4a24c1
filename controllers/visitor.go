package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/service"
	"github.com/luminchurch/chms_end/utils"
)

// lifecycleService 新朋友生命周期服务实例，由 InitControllers 注入
var lifecycleService *service.LifecycleService

// InitControllers 注入控制器依赖
func InitControllers(lifecycle *service.LifecycleService) {
	lifecycleService = lifecycle
}

// CreateVisitor 新朋友登记
func CreateVisitor(c *gin.Context) {
	var req models.CreateVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	visitor, err := lifecycleService.CreateVisitor(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "新朋友登记成功",
		"visitor": visitor,
	})
}

// ListVisitors 新朋友列表，支持关键词/状态/跟进人筛选
func ListVisitors(c *gin.Context) {
	var filter models.VisitorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}

	if filter.State != "" && !models.IsValidVisitorState(filter.State) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的生命周期状态: " + string(filter.State)})
		return
	}

	visitors, err := lifecycleService.ListVisitors(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, visitors, "")
}

// GetVisitor 获取新朋友快照，附带当前状态可执行的操作
func GetVisitor(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "新朋友ID不能为空"})
		return
	}

	snapshot, err := lifecycleService.GetVisitor(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetVisitorFollowUps 获取某个新朋友的跟进记录列表，按追加顺序返回
func GetVisitorFollowUps(c *gin.Context) {
	id := c.Param("id")

	records, err := lifecycleService.ListFollowUps(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetVisitorAssignment 获取当前有效分配
func GetVisitorAssignment(c *gin.Context) {
	id := c.Param("id")

	assignment, err := lifecycleService.CurrentAssignment(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if assignment == nil {
		c.JSON(http.StatusOK, gin.H{"assigned": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assigned":   true,
		"assignment": assignment,
	})
}

// AssignVisitor 首次分配跟进人
func AssignVisitor(c *gin.Context) {
	id := c.Param("id")

	var req models.AssignVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	visitor, err := lifecycleService.Assign(c.Request.Context(), id, req.AssigneeID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "跟进人分配成功",
		"visitor": visitor,
	})
}

// ReassignVisitor 改派跟进人
func ReassignVisitor(c *gin.Context) {
	id := c.Param("id")

	var req models.AssignVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	visitor, err := lifecycleService.Reassign(c.Request.Context(), id, req.AssigneeID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "跟进人改派成功",
		"visitor": visitor,
	})
}

// AddVisitorFollowUp 追加跟进记录
func AddVisitorFollowUp(c *gin.Context) {
	id := c.Param("id")

	var input models.CreateFollowUpRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	// 未指定跟进人时默认为当前登录用户
	if input.ContactedBy == "" {
		user, err := utils.GetUser(c)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		input.ContactedBy = user.ID
		input.ContactedByName = user.Username
	}

	record, count, err := lifecycleService.AddFollowUp(c.Request.Context(), id, &input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "创建跟进记录成功",
		"record":        record,
		"followUpCount": count,
	})
}

// MarkVisitorReady 标记为待转入
func MarkVisitorReady(c *gin.Context) {
	id := c.Param("id")

	visitor, err := lifecycleService.MarkReady(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已标记为待转入",
		"visitor": visitor,
	})
}

// UnmarkVisitorReady 撤销待转入标记
func UnmarkVisitorReady(c *gin.Context) {
	id := c.Param("id")

	visitor, err := lifecycleService.Unmark(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已撤销待转入标记",
		"visitor": visitor,
	})
}

// ArchiveVisitor 搁置
func ArchiveVisitor(c *gin.Context) {
	id := c.Param("id")

	var req models.ArchiveVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	visitor, err := lifecycleService.Archive(c.Request.Context(), id, req.Reason)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已搁置",
		"visitor": visitor,
	})
}

// RestoreVisitor 从搁置恢复
func RestoreVisitor(c *gin.Context) {
	id := c.Param("id")

	visitor, err := lifecycleService.Restore(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已恢复跟进",
		"visitor": visitor,
	})
}

// CloseVisitor 流失结案
func CloseVisitor(c *gin.Context) {
	id := c.Param("id")

	var req models.CloseVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	visitor, err := lifecycleService.Close(c.Request.Context(), id, req.Reason)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已结案",
		"visitor": visitor,
	})
}

// IntegrateVisitor 转入会友
func IntegrateVisitor(c *gin.Context) {
	id := c.Param("id")

	var req models.IntegrateVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	visitor, err := lifecycleService.Integrate(c.Request.Context(), id, req.DistrictID, req.UnitID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已转入会友",
		"visitor": visitor,
	})
}
