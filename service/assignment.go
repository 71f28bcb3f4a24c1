package service

import (
	"context"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

// Assign 首次分配跟进人，new -> engaged
func (s *LifecycleService) Assign(ctx context.Context, visitorID string, assigneeID string) (*models.Visitor, error) {
	return s.assignTransition(ctx, visitorID, assigneeID, models.VisitorEventAssign)
}

// Reassign 改派跟进人，覆盖当前分配，状态保持跟进中
func (s *LifecycleService) Reassign(ctx context.Context, visitorID string, assigneeID string) (*models.Visitor, error) {
	return s.assignTransition(ctx, visitorID, assigneeID, models.VisitorEventReassign)
}

// assignTransition 分配/改派的公共路径
// 跟进人必须解析为启用状态的会友，一个新朋友同一时刻只有一个有效分配
func (s *LifecycleService) assignTransition(ctx context.Context, visitorID string, assigneeID string, event models.VisitorEvent) (*models.Visitor, error) {
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

	assignee, err := s.members.ResolveActiveMember(ctx, assigneeID)
	if err != nil {
		return nil, utils.CreateDownstreamUnavailableError("会友目录", err)
	}
	if assignee == nil {
		return nil, utils.CreateUnknownAssigneeError(assigneeID)
	}

	now := time.Now()
	applyState(visitor, to, now)
	visitor.AssignedTo = assignee.ID.Hex()
	visitor.AssignedToName = assignee.Name
	visitor.AssignedAt = &now

	if err := s.store.SaveVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId":    visitorID,
		"assigneeId":   visitor.AssignedTo,
		"assigneeName": visitor.AssignedToName,
		"event":        event,
	}, "新朋友跟进人分配成功")

	return visitor, nil
}

// CurrentAssignment 查询当前有效分配，未分配时返回 (nil, nil)
func (s *LifecycleService) CurrentAssignment(ctx context.Context, visitorID string) (*models.VisitorAssignment, error) {
	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	if visitor.AssignedTo == "" {
		return nil, nil
	}

	assignment := &models.VisitorAssignment{
		VisitorID:    visitorID,
		AssigneeID:   visitor.AssignedTo,
		AssigneeName: visitor.AssignedToName,
	}
	if visitor.AssignedAt != nil {
		assignment.AssignedAt = *visitor.AssignedAt
	}
	return assignment, nil
}
