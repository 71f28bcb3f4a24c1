package service

import (
	"context"
	"time"

	"github.com/luminchurch/chms_end/models"
)

// VisitorStore 新朋友及跟进记录存储接口
// 状态、分配与跟进记录只允许经由生命周期服务写入
type VisitorStore interface {
	GetVisitor(ctx context.Context, id string) (*models.Visitor, error)
	InsertVisitor(ctx context.Context, visitor *models.Visitor) (string, error)
	SaveVisitor(ctx context.Context, visitor *models.Visitor) error
	ListVisitors(ctx context.Context, filter models.VisitorFilter) ([]models.Visitor, error)

	// AppendFollowUp 追加一条跟进记录，跟进记录只增不删
	AppendFollowUp(ctx context.Context, record *models.VisitorFollowUpRecord) error
	// ListFollowUps 按追加顺序（最早在前）返回跟进记录
	ListFollowUps(ctx context.Context, visitorID string) ([]models.VisitorFollowUpRecord, error)
	CountFollowUps(ctx context.Context, visitorID string) (int64, error)
	// ListDueFollowUps 查询下次跟进提醒日期落在指定区间内的跟进记录
	ListDueFollowUps(ctx context.Context, from, to time.Time) ([]models.VisitorFollowUpRecord, error)
}

// MemberDirectory 会友与教区目录接口，生命周期服务经由它解析跟进人并创建会友
type MemberDirectory interface {
	// ResolveActiveMember 解析启用状态的会友，不存在或未启用时返回 (nil, nil)
	ResolveActiveMember(ctx context.Context, id string) (*models.Member, error)
	// CreateMember 创建会友记录，返回新记录ID
	CreateMember(ctx context.Context, member *models.Member) (string, error)
	// FindMemberByVisitorRef 按关联的新朋友ID查找会友，不存在时返回 (nil, nil)
	FindMemberByVisitorRef(ctx context.Context, visitorID string) (*models.Member, error)
	// ResolveDistrict 解析教区，不存在时返回 (nil, nil)
	ResolveDistrict(ctx context.Context, id string) (*models.District, error)
	// ResolveUnit 解析小组，不存在时返回 (nil, nil)
	ResolveUnit(ctx context.Context, id string) (*models.Unit, error)
}

// Notifier 通知分发接口，尽力而为，失败不回滚主流程
type Notifier interface {
	NotifyVisitorReady(ctx context.Context, visitor *models.Visitor) error
	NotifyFollowUpDue(ctx context.Context, visitor *models.Visitor, record *models.VisitorFollowUpRecord) error
}
