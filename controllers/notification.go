package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/repository"
	"github.com/luminchurch/chms_end/utils"
)

// GetMyNotifications 获取当前用户的通知列表，最新在前
func GetMyNotifications(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()

	filter := bson.M{"recipientId": user.ID}
	if c.Query("unread") == "true" {
		filter["read"] = false
	}

	findOptions := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(100)
	cursor, err := repository.Collection(repository.NotificationsCollection).Find(ctx, filter, findOptions)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, notifications, "")
}

// MarkNotificationRead 标记通知为已读
func MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")

	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "通知ID格式错误"})
		return
	}

	ctx := c.Request.Context()
	result, err := repository.Collection(repository.NotificationsCollection).UpdateOne(
		ctx,
		bson.M{"_id": objID, "recipientId": user.ID},
		bson.M{"$set": bson.M{"read": true, "readAt": time.Now()}},
	)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "通知不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已标记为已读"})
}
