package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OperationLog API操作日志
type OperationLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	RequestID     string             `bson:"requestId,omitempty" json:"requestId,omitempty"`
	Method        string             `bson:"method" json:"method"`
	Path          string             `bson:"path" json:"path"`
	OperatorID    string             `bson:"operatorId" json:"operatorId"`
	OperatorName  string             `bson:"operatorName" json:"operatorName"`
	OperatorRole  string             `bson:"operatorRole" json:"operatorRole"`
	RequestBody   interface{}        `bson:"requestBody,omitempty" json:"requestBody,omitempty"`
	StatusCode    int                `bson:"statusCode" json:"statusCode"`
	Success       bool               `bson:"success" json:"success"`
	ErrorMessage  string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	OperationTime time.Time          `bson:"operationTime" json:"operationTime"`
	ResponseTime  int64              `bson:"responseTime" json:"responseTime"`
	IPAddress     string             `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent     string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
}
