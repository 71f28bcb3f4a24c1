package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/repository"
	"github.com/luminchurch/chms_end/utils"
)

// Login 用户登录
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	ctx := c.Request.Context()
	usersCollection := repository.Collection(repository.UsersCollection)

	var user models.User
	err := usersCollection.FindOne(ctx, bson.M{"username": req.Username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
			return
		}
		utils.HandleError(c, err)
		return
	}

	if !utils.VerifyPassword(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
		return
	}

	if user.Status != models.UserStatusAPPROVED {
		c.JSON(http.StatusForbidden, gin.H{"error": "账号尚未审批通过"})
		return
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.LogInfo(map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	}, "用户登录成功")

	c.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		User:  user,
	})
}

// Register 用户注册，注册后等待管理员审批
func Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	if !utils.IsValidPhone(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的手机号"})
		return
	}

	ctx := c.Request.Context()
	usersCollection := repository.Collection(repository.UsersCollection)

	// 用户名唯一
	count, err := usersCollection.CountDocuments(ctx, bson.M{"username": req.Username})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "用户名已存在"})
		return
	}

	now := time.Now()
	user := models.User{
		Username:  req.Username,
		Password:  utils.HashPassword(req.Password),
		Phone:     req.Phone,
		Role:      req.Role,
		Status:    models.UserStatusPENDING,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := usersCollection.InsertOne(ctx, user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	utils.LogInfo(map[string]interface{}{
		"userId":   user.ID.Hex(),
		"username": user.Username,
	}, "用户注册成功，等待审批")

	c.JSON(http.StatusCreated, gin.H{
		"message": "注册成功，请等待管理员审批",
		"user":    user,
	})
}

// ApproveUser 审批注册申请
func ApproveUser(c *gin.Context) {
	var req models.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	objID, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "用户ID格式错误"})
		return
	}

	status := models.UserStatusAPPROVED
	if !req.Approved {
		status = models.UserStatusREJECTED
	}

	update := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if !req.Approved && req.Reason != "" {
		update["rejectionReason"] = req.Reason
	}

	ctx := c.Request.Context()
	result, err := repository.Collection(repository.UsersCollection).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": update},
	)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "审批完成",
		"status":  status,
	})
}

// GetCurrentUser 获取当前登录用户信息
func GetCurrentUser(c *gin.Context) {
	loginUser, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := repository.FindUserByID(loginUser.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
