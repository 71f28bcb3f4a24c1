package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationEvent 通知事件枚举
type NotificationEvent string

const (
	NotificationEventVisitorReady NotificationEvent = "visitor_ready" // 新朋友待转入
	NotificationEventFollowUpDue  NotificationEvent = "follow_up_due" // 跟进提醒到期
)

// Notification 站内通知
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Event         NotificationEvent  `bson:"event" json:"event"`
	VisitorID     string             `bson:"visitorId" json:"visitorId"`
	VisitorName   string             `bson:"visitorName,omitempty" json:"visitorName,omitempty"`
	RecipientID   string             `bson:"recipientId" json:"recipientId"`
	RecipientRole UserRole           `bson:"recipientRole,omitempty" json:"recipientRole,omitempty"`
	Message       string             `bson:"message" json:"message"`
	Read          bool               `bson:"read" json:"read"`
	ReadAt        *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
