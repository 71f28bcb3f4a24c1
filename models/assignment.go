package models

import "time"

// VisitorAssignment 新朋友当前跟进分配
// 一个新朋友同一时刻至多只有一个有效分配，改派即覆盖
type VisitorAssignment struct {
	VisitorID    string    `bson:"visitorId" json:"visitorId"`
	AssigneeID   string    `bson:"assigneeId" json:"assigneeId"`
	AssigneeName string    `bson:"assigneeName,omitempty" json:"assigneeName,omitempty"`
	AssignedAt   time.Time `bson:"assignedAt" json:"assignedAt"`
}
