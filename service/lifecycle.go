package service

import (
	"context"
	"sync"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

// transitionTable 生命周期流转表: 当前状态 -> 事件 -> 目标状态
// 表中未列出的 (状态, 事件) 组合一律拒绝，状态保持不变
var transitionTable = map[models.VisitorState]map[models.VisitorEvent]models.VisitorState{
	models.VisitorStateNew: {
		models.VisitorEventAssign: models.VisitorStateEngaged,
	},
	models.VisitorStateEngaged: {
		models.VisitorEventReassign:    models.VisitorStateEngaged,
		models.VisitorEventAddFollowUp: models.VisitorStateEngaged,
		models.VisitorEventMarkReady:   models.VisitorStateReadyForIntegration,
		models.VisitorEventArchive:     models.VisitorStateArchived,
		models.VisitorEventClose:       models.VisitorStateClosed,
	},
	models.VisitorStateArchived: {
		models.VisitorEventRestore: models.VisitorStateEngaged,
		models.VisitorEventClose:   models.VisitorStateClosed,
	},
	models.VisitorStateReadyForIntegration: {
		models.VisitorEventUnmark:    models.VisitorStateEngaged,
		models.VisitorEventIntegrate: models.VisitorStateClosed,
	},
	// closed 为终态，无任何出边
	models.VisitorStateClosed: {},
}

// eventOrder 用于 AllowedEvents 的稳定输出顺序
var eventOrder = []models.VisitorEvent{
	models.VisitorEventAssign,
	models.VisitorEventReassign,
	models.VisitorEventAddFollowUp,
	models.VisitorEventMarkReady,
	models.VisitorEventArchive,
	models.VisitorEventClose,
	models.VisitorEventRestore,
	models.VisitorEventUnmark,
	models.VisitorEventIntegrate,
}

// AllowedEvents 返回指定状态下允许的流转事件，供前端按当前状态渲染操作按钮
func AllowedEvents(state models.VisitorState) []models.VisitorEvent {
	targets := transitionTable[state]
	events := make([]models.VisitorEvent, 0, len(targets))
	for _, event := range eventOrder {
		if _, ok := targets[event]; ok {
			events = append(events, event)
		}
	}
	return events
}

// nextState 查流转表，未定义的组合返回 INVALID_TRANSITION 错误
func nextState(state models.VisitorState, event models.VisitorEvent) (models.VisitorState, error) {
	if targets, ok := transitionTable[state]; ok {
		if to, ok := targets[event]; ok {
			return to, nil
		}
	}
	return "", utils.CreateInvalidTransitionError(string(state), string(event))
}

// LifecycleService 新朋友生命周期服务
// 新朋友的状态、分配与跟进记录唯一的写入入口，同一新朋友上的流转串行执行
type LifecycleService struct {
	store    VisitorStore
	members  MemberDirectory
	notifier Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLifecycleService 创建生命周期服务
func NewLifecycleService(store VisitorStore, members MemberDirectory, notifier Notifier) *LifecycleService {
	return &LifecycleService{
		store:    store,
		members:  members,
		notifier: notifier,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockVisitor 获取指定新朋友的互斥锁，保证同一新朋友上
// 读守卫和写状态不会交错，不同新朋友之间互不影响
func (s *LifecycleService) lockVisitor(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// applyState 写入目标状态并同步派生字段
// Archived 布尔为旧版兼容字段，只在这里由状态派生，任何地方不得单独写入
func applyState(visitor *models.Visitor, to models.VisitorState, now time.Time) {
	visitor.State = to
	visitor.Archived = to == models.VisitorStateArchived
	visitor.LastUpdateTime = now
	visitor.UpdatedAt = now
}

// readinessGuard 待转入/结案守卫: 必须已分配跟进人且至少有一条跟进记录
// 该守卫是问责要求，必须在服务层强制，不能只依赖前端禁用按钮
func (s *LifecycleService) readinessGuard(ctx context.Context, visitor *models.Visitor) error {
	if visitor.AssignedTo == "" {
		return utils.CreateGuardNotSatisfiedError("尚未分配跟进人，请先分配跟进人")
	}

	count, err := s.store.CountFollowUps(ctx, visitor.ID.Hex())
	if err != nil {
		return err
	}
	if count < 1 {
		return utils.CreateGuardNotSatisfiedError("尚无任何跟进记录，请先补充至少一条跟进记录")
	}
	return nil
}

// CreateVisitor 新朋友登记，初始状态为 new，无分配、无跟进记录
func (s *LifecycleService) CreateVisitor(ctx context.Context, req *models.CreateVisitorRequest) (*models.Visitor, error) {
	now := time.Now()
	firstVisit := req.FirstVisitDate
	if firstVisit.IsZero() {
		firstVisit = now
	}

	visitor := &models.Visitor{
		Name:           req.Name,
		Gender:         req.Gender,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		InvitedBy:      req.InvitedBy,
		FirstVisitDate: firstVisit,
		Notes:          req.Notes,
		State:          models.VisitorStateNew,
		LastUpdateTime: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := s.store.InsertVisitor(ctx, visitor)
	if err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId": id,
		"name":      visitor.Name,
	}, "新朋友登记成功")

	return visitor, nil
}

// GetVisitor 获取新朋友快照，附带当前状态可执行的操作列表
func (s *LifecycleService) GetVisitor(ctx context.Context, id string) (*models.VisitorSnapshot, error) {
	visitor, err := s.store.GetVisitor(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.VisitorSnapshot{
		Visitor:       *visitor,
		AllowedEvents: AllowedEvents(visitor.State),
	}, nil
}

// ListVisitors 按条件查询新朋友列表
func (s *LifecycleService) ListVisitors(ctx context.Context, filter models.VisitorFilter) ([]models.Visitor, error) {
	return s.store.ListVisitors(ctx, filter)
}

// MarkReady 标记为待转入，通过守卫后先落状态再发通知
func (s *LifecycleService) MarkReady(ctx context.Context, visitorID string) (*models.Visitor, error) {
	unlock := s.lockVisitor(visitorID)
	defer unlock()

	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	to, err := nextState(visitor.State, models.VisitorEventMarkReady)
	if err != nil {
		return nil, err
	}

	if err := s.readinessGuard(ctx, visitor); err != nil {
		return nil, err
	}

	applyState(visitor, to, time.Now())
	if err := s.store.SaveVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId": visitorID,
		"state":     visitor.State,
	}, "新朋友已标记为待转入")

	// 通知为尽力而为，失败只记日志，不影响已完成的状态流转
	if err := s.notifier.NotifyVisitorReady(ctx, visitor); err != nil {
		utils.LogError(err, map[string]interface{}{
			"visitorId": visitorID,
		}, "待转入通知发送失败")
	}

	return visitor, nil
}

// Unmark 撤销待转入标记，回到跟进中
func (s *LifecycleService) Unmark(ctx context.Context, visitorID string) (*models.Visitor, error) {
	return s.simpleTransition(ctx, visitorID, models.VisitorEventUnmark, func(v *models.Visitor) {})
}

// Archive 搁置，可附原因
func (s *LifecycleService) Archive(ctx context.Context, visitorID string, reason string) (*models.Visitor, error) {
	return s.simpleTransition(ctx, visitorID, models.VisitorEventArchive, func(v *models.Visitor) {
		v.ArchiveReason = reason
	})
}

// Restore 从搁置恢复到跟进中，分配与跟进记录保持不变
func (s *LifecycleService) Restore(ctx context.Context, visitorID string) (*models.Visitor, error) {
	return s.simpleTransition(ctx, visitorID, models.VisitorEventRestore, func(v *models.Visitor) {
		v.ArchiveReason = ""
	})
}

// Close 流失结案，终态，守卫与待转入一致
func (s *LifecycleService) Close(ctx context.Context, visitorID string, reason string) (*models.Visitor, error) {
	unlock := s.lockVisitor(visitorID)
	defer unlock()

	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	to, err := nextState(visitor.State, models.VisitorEventClose)
	if err != nil {
		return nil, err
	}

	if err := s.readinessGuard(ctx, visitor); err != nil {
		return nil, err
	}

	applyState(visitor, to, time.Now())
	visitor.ClosedOutcome = models.ClosedOutcomeInactive
	visitor.CloseReason = reason

	if err := s.store.SaveVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId": visitorID,
		"outcome":   visitor.ClosedOutcome,
	}, "新朋友已结案")

	return visitor, nil
}

// simpleTransition 无守卫流转的公共路径
func (s *LifecycleService) simpleTransition(ctx context.Context, visitorID string, event models.VisitorEvent, mutate func(*models.Visitor)) (*models.Visitor, error) {
	unlock := s.lockVisitor(visitorID)
	defer unlock()

	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	to, err := nextState(visitor.State, event)
	if err != nil {
		return nil, err
	}

	applyState(visitor, to, time.Now())
	mutate(visitor)

	if err := s.store.SaveVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId": visitorID,
		"event":     event,
		"state":     visitor.State,
	}, "生命周期流转完成")

	return visitor, nil
}
