package service

import (
	"context"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

// Integrate 终态流转: 将待转入的新朋友转为正式会友
//
// 会友创建委托给会友目录。创建未确认成功时绝不落已结案/已转入状态，
// 新朋友保持待转入，调用方可重试；重试路径先检查是否已存在关联会友，
// 避免上次超时实际已成功时重复创建
func (s *LifecycleService) Integrate(ctx context.Context, visitorID string, districtID string, unitID string) (*models.Visitor, error) {
	unlock := s.lockVisitor(visitorID)
	defer unlock()

	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	to, err := nextState(visitor.State, models.VisitorEventIntegrate)
	if err != nil {
		return nil, err
	}

	if districtID == "" {
		return nil, utils.CreateDistrictRequiredError()
	}

	district, err := s.members.ResolveDistrict(ctx, districtID)
	if err != nil {
		return nil, utils.CreateDownstreamUnavailableError("教区目录", err)
	}
	if district == nil {
		return nil, utils.CreateNotFoundError("教区")
	}

	// 小组为可选项，填了就必须属于所选教区
	var unit *models.Unit
	if unitID != "" {
		unit, err = s.members.ResolveUnit(ctx, unitID)
		if err != nil {
			return nil, utils.CreateDownstreamUnavailableError("教区目录", err)
		}
		if unit == nil {
			return nil, utils.CreateNotFoundError("小组")
		}
		if unit.DistrictID != districtID {
			return nil, utils.CreateBadRequestError("所选小组不属于该教区")
		}
	}

	memberID, err := s.ensureMemberRecord(ctx, visitor, district, unit)
	if err != nil {
		// 创建未确认成功，状态保持待转入
		return nil, err
	}

	applyState(visitor, to, time.Now())
	visitor.ClosedOutcome = models.ClosedOutcomeMember
	visitor.Converted = true
	visitor.MemberRecordID = memberID

	if err := s.store.SaveVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{
		"visitorId":  visitorID,
		"memberId":   memberID,
		"districtId": districtID,
		"unitId":     unitID,
	}, "新朋友已转入会友")

	return visitor, nil
}

// ensureMemberRecord 保证存在一条关联会友记录并返回其ID
func (s *LifecycleService) ensureMemberRecord(ctx context.Context, visitor *models.Visitor, district *models.District, unit *models.Unit) (string, error) {
	visitorID := visitor.ID.Hex()

	existing, err := s.members.FindMemberByVisitorRef(ctx, visitorID)
	if err != nil {
		return "", utils.CreateDownstreamUnavailableError("会友目录", err)
	}
	if existing != nil {
		utils.LogInfo(map[string]interface{}{
			"visitorId": visitorID,
			"memberId":  existing.ID.Hex(),
		}, "已存在关联会友记录，跳过重复创建")
		return existing.ID.Hex(), nil
	}

	now := time.Now()
	member := &models.Member{
		Name:         visitor.Name,
		Gender:       visitor.Gender,
		Phone:        visitor.Phone,
		Email:        visitor.Email,
		Address:      visitor.Address,
		DistrictID:   district.ID.Hex(),
		DistrictName: district.Name,
		Status:       models.MemberStatusActive,
		VisitorRef:   visitorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if unit != nil {
		member.UnitID = unit.ID.Hex()
		member.UnitName = unit.Name
	}

	memberID, err := s.members.CreateMember(ctx, member)
	if err != nil {
		return "", utils.CreateDownstreamUnavailableError("会友目录", err)
	}
	return memberID, nil
}
