package service

import (
	"context"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

// ScheduleDailyTaskAt 每天指定时间执行任务
func ScheduleDailyTaskAt(hour, min, sec int, task func()) {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, sec, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			time.Sleep(next.Sub(now))
			task()
		}
	}()
}

// ProcessDueFollowUpReminders 每日提醒扫描
// 查出下次跟进提醒日期落在今天的跟进记录，为仍在跟进中的新朋友发送提醒通知。
// 纯通知性质，不改动任何新朋友状态；每天只跑一次，天然不会重复提醒
func (s *LifecycleService) ProcessDueFollowUpReminders(ctx context.Context) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	utils.LogInfo(map[string]interface{}{
		"from": dayStart,
		"to":   dayEnd,
	}, "开始执行每日跟进提醒扫描")

	records, err := s.store.ListDueFollowUps(ctx, dayStart, dayEnd)
	if err != nil {
		utils.LogError(err, nil, "查询到期跟进提醒失败")
		return
	}

	sent := 0
	for i := range records {
		record := &records[i]

		visitor, err := s.store.GetVisitor(ctx, record.VisitorID)
		if err != nil {
			utils.LogError(err, map[string]interface{}{
				"visitorId": record.VisitorID,
			}, "跟进提醒对应的新朋友查询失败")
			continue
		}

		// 只提醒仍在跟进中的新朋友
		if visitor.State != models.VisitorStateEngaged {
			continue
		}

		if err := s.notifier.NotifyFollowUpDue(ctx, visitor, record); err != nil {
			utils.LogError(err, map[string]interface{}{
				"visitorId": record.VisitorID,
			}, "跟进提醒通知发送失败")
			continue
		}
		sent++
	}

	utils.LogInfo(map[string]interface{}{
		"dueCount":  len(records),
		"sentCount": sent,
	}, "每日跟进提醒扫描完成")
}
