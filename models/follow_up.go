package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowUpMethod 跟进方式枚举
type FollowUpMethod string

const (
	FollowUpMethodPhone    FollowUpMethod = "phone"
	FollowUpMethodEmail    FollowUpMethod = "email"
	FollowUpMethodSms      FollowUpMethod = "sms"
	FollowUpMethodWhatsapp FollowUpMethod = "whatsapp"
	FollowUpMethodVisit    FollowUpMethod = "visit"
	FollowUpMethodVideo    FollowUpMethod = "video"
	FollowUpMethodInVisit  FollowUpMethod = "in-visit" // 来堂参加聚会
)

// IsValidFollowUpMethod 验证跟进方式是否有效
func IsValidFollowUpMethod(method FollowUpMethod) bool {
	switch method {
	case FollowUpMethodPhone, FollowUpMethodEmail, FollowUpMethodSms,
		FollowUpMethodWhatsapp, FollowUpMethodVisit, FollowUpMethodVideo,
		FollowUpMethodInVisit:
		return true
	}
	return false
}

// FollowUpOutcome 跟进结果枚举
type FollowUpOutcome string

const (
	FollowUpOutcomeSuccessful     FollowUpOutcome = "successful"
	FollowUpOutcomeInterested     FollowUpOutcome = "interested"
	FollowUpOutcomeNoAnswer       FollowUpOutcome = "no_answer"
	FollowUpOutcomeBusy           FollowUpOutcome = "busy"
	FollowUpOutcomeNotInterested  FollowUpOutcome = "not_interested"
	FollowUpOutcomeFollowUpNeeded FollowUpOutcome = "follow_up_needed"
)

// IsValidFollowUpOutcome 验证跟进结果是否有效
func IsValidFollowUpOutcome(outcome FollowUpOutcome) bool {
	switch outcome {
	case FollowUpOutcomeSuccessful, FollowUpOutcomeInterested,
		FollowUpOutcomeNoAnswer, FollowUpOutcomeBusy,
		FollowUpOutcomeNotInterested, FollowUpOutcomeFollowUpNeeded:
		return true
	}
	return false
}

// VisitorFollowUpRecord 新朋友跟进记录，只增不删
type VisitorFollowUpRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	VisitorID       string             `bson:"visitorId" json:"visitorId"`
	Date            time.Time          `bson:"date" json:"date"`
	Method          FollowUpMethod     `bson:"method" json:"method"`
	Outcome         FollowUpOutcome    `bson:"outcome" json:"outcome"`
	ContactedBy     string             `bson:"contactedBy" json:"contactedBy"`
	ContactedByName string             `bson:"contactedByName,omitempty" json:"contactedByName,omitempty"`
	Note            string             `bson:"note,omitempty" json:"note,omitempty"`
	// NextFollowUpDate 下次跟进提醒日期，可选
	NextFollowUpDate *time.Time `bson:"nextFollowUpDate,omitempty" json:"nextFollowUpDate,omitempty"`
	// VisitNumber 第几次来堂，仅 method 为 in-visit 时有意义
	VisitNumber int       `bson:"visitNumber,omitempty" json:"visitNumber,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// CreateFollowUpRecordInput 创建跟进记录的输入数据
type CreateFollowUpRecordInput struct {
	Date             time.Time       `json:"date"`
	Method           FollowUpMethod  `json:"method"`
	Outcome          FollowUpOutcome `json:"outcome"`
	ContactedBy      string          `json:"contactedBy"`
	ContactedByName  string          `json:"contactedByName"`
	Note             string          `json:"note"`
	NextFollowUpDate *time.Time      `json:"nextFollowUpDate"`
	VisitNumber      int             `json:"visitNumber"`
}
