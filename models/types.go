package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole 用户角色枚举
type UserRole string

const (
	UserRoleSUPER_ADMIN          UserRole = "SUPER_ADMIN"          // 超级管理员
	UserRolePASTOR               UserRole = "PASTOR"               // 牧者
	UserRoleFOLLOWUP_COORDINATOR UserRole = "FOLLOWUP_COORDINATOR" // 跟进事工负责人
	UserRoleCARETAKER            UserRole = "CARETAKER"            // 跟进同工
)

// UserStatus 用户状态枚举
type UserStatus string

const (
	UserStatusPENDING  UserStatus = "pending"
	UserStatusAPPROVED UserStatus = "approved"
	UserStatusREJECTED UserStatus = "rejected"
)

// User 系统用户类型
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username        string             `bson:"username" json:"username"`
	Password        string             `bson:"password" json:"-"` // 不返回密码
	Phone           string             `bson:"phone" json:"phone"`
	Role            UserRole           `bson:"role" json:"role"`
	Status          UserStatus         `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username string             `bson:"username" json:"username"`
	Role     UserRole           `bson:"role" json:"role"`
}

// MemberStatus 会友状态枚举
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Member 会友模型
type Member struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Gender       string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Phone        string             `bson:"phone" json:"phone"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	DistrictID   string             `bson:"districtId" json:"districtId"`
	DistrictName string             `bson:"districtName,omitempty" json:"districtName,omitempty"`
	UnitID       string             `bson:"unitId,omitempty" json:"unitId,omitempty"`
	UnitName     string             `bson:"unitName,omitempty" json:"unitName,omitempty"`
	Status       MemberStatus       `bson:"status" json:"status"`
	VisitorRef   string             `bson:"visitorRef,omitempty" json:"visitorRef,omitempty"` // 由新朋友转入时关联的新朋友ID
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MemberBrief 会友简要信息，用于下拉选择
type MemberBrief struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name   string             `bson:"name" json:"name"`
	Phone  string             `bson:"phone" json:"phone"`
	Status MemberStatus       `bson:"status" json:"status"`
}

// District 教区
type District struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Leader    string             `bson:"leader,omitempty" json:"leader,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Unit 教区下属小组
type Unit struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	DistrictID string             `bson:"districtId" json:"districtId"`
	Name       string             `bson:"name" json:"name"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// 各种请求和响应结构
type (
	// LoginRequest 登录请求
	LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	// LoginResponse 登录响应
	LoginResponse struct {
		Token string      `json:"token"`
		User  interface{} `json:"user"`
	}

	// RegisterRequest 注册请求
	RegisterRequest struct {
		Username string   `json:"username" binding:"required,min=2"`
		Password string   `json:"password" binding:"required,min=6"`
		Phone    string   `json:"phone" binding:"required,len=11"`
		Role     UserRole `json:"role" binding:"required"`
	}

	// ApprovalRequest 审批请求
	ApprovalRequest struct {
		ID       string `json:"id" binding:"required"`
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
)
