package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// stakeholderRoles 待转入通知的接收角色
var stakeholderRoles = []models.UserRole{
	models.UserRoleSUPER_ADMIN,
	models.UserRolePASTOR,
	models.UserRoleFOLLOWUP_COORDINATOR,
}

// MongoNotifier 站内通知分发器，把通知写入notifications集合
type MongoNotifier struct{}

// NewMongoNotifier 创建站内通知分发器
func NewMongoNotifier() *MongoNotifier {
	return &MongoNotifier{}
}

// NotifyVisitorReady 向相关同工发送新朋友待转入通知
func (n *MongoNotifier) NotifyVisitorReady(ctx context.Context, visitor *models.Visitor) error {
	message := fmt.Sprintf("新朋友 [%s] 已完成跟进，等待转入会友", visitor.Name)
	return n.fanOut(ctx, models.NotificationEventVisitorReady, visitor, message, "")
}

// NotifyFollowUpDue 向当前跟进人发送跟进提醒到期通知
func (n *MongoNotifier) NotifyFollowUpDue(ctx context.Context, visitor *models.Visitor, record *models.VisitorFollowUpRecord) error {
	message := fmt.Sprintf("新朋友 [%s] 的跟进提醒已到期，请尽快跟进", visitor.Name)
	return n.fanOut(ctx, models.NotificationEventFollowUpDue, visitor, message, visitor.AssignedTo)
}

// fanOut 写入通知记录
// recipientID 非空时只发给该接收人，否则按角色广播给相关同工
func (n *MongoNotifier) fanOut(ctx context.Context, event models.NotificationEvent, visitor *models.Visitor, message string, recipientID string) error {
	now := time.Now()
	var docs []interface{}

	if recipientID != "" {
		docs = append(docs, models.Notification{
			Event:       event,
			VisitorID:   visitor.ID.Hex(),
			VisitorName: visitor.Name,
			RecipientID: recipientID,
			Message:     message,
			CreatedAt:   now,
		})
	} else {
		cursor, err := Collection(UsersCollection).Find(ctx, bson.M{
			"role":   bson.M{"$in": stakeholderRoles},
			"status": models.UserStatusAPPROVED,
		})
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			return err
		}

		for _, user := range users {
			docs = append(docs, models.Notification{
				Event:         event,
				VisitorID:     visitor.ID.Hex(),
				VisitorName:   visitor.Name,
				RecipientID:   user.ID.Hex(),
				RecipientRole: user.Role,
				Message:       message,
				CreatedAt:     now,
			})
		}
	}

	if len(docs) == 0 {
		utils.LogInfo(map[string]interface{}{
			"event":     event,
			"visitorId": visitor.ID.Hex(),
		}, "没有可接收通知的同工")
		return nil
	}

	_, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(NotificationsCollection).InsertMany(ctx, docs)
	}, 3)
	if err != nil {
		return err
	}

	utils.LogInfo(map[string]interface{}{
		"event":     event,
		"visitorId": visitor.ID.Hex(),
		"count":     len(docs),
	}, "通知发送成功")

	return nil
}
