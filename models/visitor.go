package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VisitorState 新朋友生命周期状态枚举
type VisitorState string

const (
	VisitorStateNew                 VisitorState = "new"                   // 新登记
	VisitorStateEngaged             VisitorState = "engaged"               // 跟进中
	VisitorStateReadyForIntegration VisitorState = "ready_for_integration" // 待转入
	VisitorStateArchived            VisitorState = "archived"              // 已搁置
	VisitorStateClosed              VisitorState = "closed"                // 已结案
)

// IsValidVisitorState 验证生命周期状态是否有效
func IsValidVisitorState(state VisitorState) bool {
	switch state {
	case VisitorStateNew, VisitorStateEngaged, VisitorStateReadyForIntegration,
		VisitorStateArchived, VisitorStateClosed:
		return true
	}
	return false
}

// ClosedOutcome 结案结果枚举
type ClosedOutcome string

const (
	ClosedOutcomeMember   ClosedOutcome = "member"   // 已转入会友
	ClosedOutcomeInactive ClosedOutcome = "inactive" // 流失结案
)

// VisitorEvent 生命周期流转事件枚举
type VisitorEvent string

const (
	VisitorEventAssign      VisitorEvent = "assign"
	VisitorEventReassign    VisitorEvent = "reassign"
	VisitorEventAddFollowUp VisitorEvent = "add_follow_up"
	VisitorEventMarkReady   VisitorEvent = "mark_ready"
	VisitorEventArchive     VisitorEvent = "archive"
	VisitorEventClose       VisitorEvent = "close"
	VisitorEventRestore     VisitorEvent = "restore"
	VisitorEventUnmark      VisitorEvent = "unmark"
	VisitorEventIntegrate   VisitorEvent = "integrate"
)

// Visitor 新朋友模型
type Visitor struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Gender         string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Phone          string             `bson:"phone" json:"phone"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	InvitedBy      string             `bson:"invitedBy,omitempty" json:"invitedBy,omitempty"`
	FirstVisitDate time.Time          `bson:"firstVisitDate" json:"firstVisitDate"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`

	State VisitorState `bson:"state" json:"state"`

	// 当前跟进分配，未分配时为空
	AssignedTo     string     `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedToName string     `bson:"assignedToName,omitempty" json:"assignedToName,omitempty"`
	AssignedAt     *time.Time `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`

	// 跟进记录条数，仅由跟进记录追加时递增
	FollowUpCount int64 `bson:"followUpCount" json:"followUpCount"`

	// Archived 为旧版布尔表示的兼容字段，始终由 State 派生，不单独写入
	Archived bool `bson:"archived" json:"archived"`

	// 转入会友后才会设置
	Converted      bool   `bson:"converted" json:"converted"`
	MemberRecordID string `bson:"memberRecordId,omitempty" json:"memberRecordId,omitempty"`

	ClosedOutcome ClosedOutcome `bson:"closedOutcome,omitempty" json:"closedOutcome,omitempty"`
	CloseReason   string        `bson:"closeReason,omitempty" json:"closeReason,omitempty"`
	ArchiveReason string        `bson:"archiveReason,omitempty" json:"archiveReason,omitempty"`

	LastUpdateTime time.Time `bson:"lastUpdateTime" json:"lastUpdateTime"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// VisitorFilter 新朋友列表查询条件
type VisitorFilter struct {
	Keyword    string       `form:"keyword"`
	State      VisitorState `form:"state"`
	AssignedTo string       `form:"assignedTo"`
}

// VisitorSnapshot 新朋友快照，附带当前状态下可执行的操作
type VisitorSnapshot struct {
	Visitor
	AllowedEvents []VisitorEvent `json:"allowedEvents"`
}

// 各种请求结构
type (
	// CreateVisitorRequest 新朋友登记请求
	CreateVisitorRequest struct {
		Name           string    `json:"name" binding:"required,min=2"`
		Gender         string    `json:"gender"`
		Phone          string    `json:"phone" binding:"required"`
		Email          string    `json:"email"`
		Address        string    `json:"address"`
		InvitedBy      string    `json:"invitedBy"`
		FirstVisitDate time.Time `json:"firstVisitDate"`
		Notes          string    `json:"notes"`
	}

	// AssignVisitorRequest 分配/改派跟进人请求
	AssignVisitorRequest struct {
		AssigneeID string `json:"assigneeId" binding:"required"`
	}

	// ArchiveVisitorRequest 搁置请求
	ArchiveVisitorRequest struct {
		Reason string `json:"reason"`
	}

	// CloseVisitorRequest 结案请求
	CloseVisitorRequest struct {
		Reason string `json:"reason"`
	}

	// IntegrateVisitorRequest 转入会友请求
	IntegrateVisitorRequest struct {
		DistrictID string `json:"districtId"`
		UnitID     string `json:"unitId"`
	}
)
