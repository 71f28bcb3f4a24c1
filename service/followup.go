package service

import (
	"context"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

// validateFollowUpInput 校验跟进记录必填字段与枚举取值
func validateFollowUpInput(input *models.CreateFollowUpRecordInput) error {
	if input.Date.IsZero() {
		return utils.CreateInvalidRecordError("跟进日期不能为空")
	}
	if !models.IsValidFollowUpMethod(input.Method) {
		return utils.CreateInvalidRecordError("无效的跟进方式: " + string(input.Method))
	}
	if !models.IsValidFollowUpOutcome(input.Outcome) {
		return utils.CreateInvalidRecordError("无效的跟进结果: " + string(input.Outcome))
	}
	if input.ContactedBy == "" {
		return utils.CreateInvalidRecordError("跟进记录必须填写跟进人")
	}
	if input.VisitNumber < 0 {
		return utils.CreateInvalidRecordError("来堂次数不能为负数")
	}
	if input.VisitNumber > 0 && input.Method != models.FollowUpMethodInVisit {
		return utils.CreateInvalidRecordError("仅来堂跟进可填写来堂次数")
	}
	return nil
}

// AddFollowUp 追加跟进记录，仅限跟进中状态，返回记录与追加后的记录总数
// 跟进记录只增不删，记录总数是后续守卫的依据
func (s *LifecycleService) AddFollowUp(ctx context.Context, visitorID string, input *models.CreateFollowUpRecordInput) (*models.VisitorFollowUpRecord, int64, error) {
	unlock := s.lockVisitor(visitorID)
	defer unlock()

	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := nextState(visitor.State, models.VisitorEventAddFollowUp); err != nil {
		return nil, 0, err
	}

	if err := validateFollowUpInput(input); err != nil {
		return nil, 0, err
	}

	now := time.Now()
	record := &models.VisitorFollowUpRecord{
		VisitorID:        visitorID,
		Date:             input.Date,
		Method:           input.Method,
		Outcome:          input.Outcome,
		ContactedBy:      input.ContactedBy,
		ContactedByName:  input.ContactedByName,
		Note:             input.Note,
		NextFollowUpDate: input.NextFollowUpDate,
		VisitNumber:      input.VisitNumber,
		CreatedAt:        now,
	}

	if err := s.store.AppendFollowUp(ctx, record); err != nil {
		return nil, 0, err
	}

	count, err := s.store.CountFollowUps(ctx, visitorID)
	if err != nil {
		return nil, 0, err
	}

	visitor.FollowUpCount = count
	visitor.LastUpdateTime = now
	visitor.UpdatedAt = now
	if err := s.store.SaveVisitor(ctx, visitor); err != nil {
		return nil, 0, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId":     visitorID,
		"method":        record.Method,
		"outcome":       record.Outcome,
		"followUpCount": count,
	}, "跟进记录追加成功")

	return record, count, nil
}

// ListFollowUps 按追加顺序返回跟进记录，最早在前
// 需要最新在前的调用方自行倒序，不属于本组件职责
func (s *LifecycleService) ListFollowUps(ctx context.Context, visitorID string) ([]models.VisitorFollowUpRecord, error) {
	if _, err := s.store.GetVisitor(ctx, visitorID); err != nil {
		return nil, err
	}
	return s.store.ListFollowUps(ctx, visitorID)
}
