package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/repository"
	"github.com/luminchurch/chms_end/utils"
)

// GetAssignableMembers 获取可分配为跟进人的会友列表
func GetAssignableMembers(c *gin.Context) {
	ctx := c.Request.Context()

	findOptions := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := repository.Collection(repository.MembersCollection).Find(
		ctx,
		bson.M{"status": models.MemberStatusActive},
		findOptions,
	)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var members []models.MemberBrief
	if err := cursor.All(ctx, &members); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, members, "")
}

// GetDistricts 获取教区列表，转入会友表单使用
func GetDistricts(c *gin.Context) {
	ctx := c.Request.Context()

	cursor, err := repository.Collection(repository.DistrictsCollection).Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.M{"name": 1}),
	)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var districts []models.District
	if err := cursor.All(ctx, &districts); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, districts, "")
}

// GetDistrictUnits 获取指定教区下属小组列表
func GetDistrictUnits(c *gin.Context) {
	districtId := c.Param("districtId")
	if districtId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "教区ID不能为空"})
		return
	}

	ctx := c.Request.Context()

	cursor, err := repository.Collection(repository.UnitsCollection).Find(
		ctx,
		bson.M{"districtId": districtId},
		options.Find().SetSort(bson.M{"name": 1}),
	)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var units []models.Unit
	if err := cursor.All(ctx, &units); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, units, "")
}
