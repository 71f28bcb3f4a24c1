package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/repository"
	"github.com/luminchurch/chms_end/utils"
)

// recordingNotifier 记录通知调用的测试替身
type recordingNotifier struct {
	mu         sync.Mutex
	readyCalls []string
	dueCalls   []string
	readyErr   error
}

func (n *recordingNotifier) NotifyVisitorReady(ctx context.Context, visitor *models.Visitor) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.readyErr != nil {
		return n.readyErr
	}
	n.readyCalls = append(n.readyCalls, visitor.ID.Hex())
	return nil
}

func (n *recordingNotifier) NotifyFollowUpDue(ctx context.Context, visitor *models.Visitor, record *models.VisitorFollowUpRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dueCalls = append(n.dueCalls, visitor.ID.Hex())
	return nil
}

type testEnv struct {
	svc      *LifecycleService
	store    *repository.MemoryVisitorStore
	members  *repository.MemoryMemberDirectory
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryVisitorStore()
	members := repository.NewMemoryMemberDirectory()
	notifier := &recordingNotifier{}
	return &testEnv{
		svc:      NewLifecycleService(store, members, notifier),
		store:    store,
		members:  members,
		notifier: notifier,
	}
}

// seedCaretaker 预置一名启用状态的会友作为跟进人
func (e *testEnv) seedCaretaker(t *testing.T, name string) string {
	t.Helper()
	return e.members.AddMember(models.Member{
		Name:   name,
		Phone:  "13900000000",
		Status: models.MemberStatusActive,
	})
}

// seedVisitor 登记一名新朋友，初始状态为 new
func (e *testEnv) seedVisitor(t *testing.T, name string) string {
	t.Helper()
	visitor, err := e.svc.CreateVisitor(context.Background(), &models.CreateVisitorRequest{
		Name:  name,
		Phone: "13800001111",
	})
	require.NoError(t, err)
	return visitor.ID.Hex()
}

// seedEngagedVisitor 登记并分配跟进人，返回 (visitorID, caretakerID)
func (e *testEnv) seedEngagedVisitor(t *testing.T) (string, string) {
	t.Helper()
	caretakerID := e.seedCaretaker(t, "张弟兄")
	visitorID := e.seedVisitor(t, "王新朋友")
	_, err := e.svc.Assign(context.Background(), visitorID, caretakerID)
	require.NoError(t, err)
	return visitorID, caretakerID
}

func followUpInput(contactedBy string) *models.CreateFollowUpRecordInput {
	return &models.CreateFollowUpRecordInput{
		Date:        time.Now(),
		Method:      models.FollowUpMethodPhone,
		Outcome:     models.FollowUpOutcomeInterested,
		ContactedBy: contactedBy,
	}
}

func TestCreateVisitorStartsNew(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitor, err := env.svc.CreateVisitor(ctx, &models.CreateVisitorRequest{
		Name:  "李新朋友",
		Phone: "13800002222",
	})
	require.NoError(t, err)

	assert.Equal(t, models.VisitorStateNew, visitor.State)
	assert.Empty(t, visitor.AssignedTo)
	assert.False(t, visitor.Archived)
	assert.False(t, visitor.Converted)

	count, err := env.store.CountFollowUps(ctx, visitor.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHappyPathNewToMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	caretakerID := env.seedCaretaker(t, "张弟兄")
	districtID := env.members.AddDistrict(models.District{Name: "东区"})
	visitorID := env.seedVisitor(t, "王新朋友")

	// new -> engaged
	visitor, err := env.svc.Assign(ctx, visitorID, caretakerID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, visitor.State)
	assert.Equal(t, caretakerID, visitor.AssignedTo)

	// 补充跟进记录
	_, count, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// engaged -> ready_for_integration
	visitor, err = env.svc.MarkReady(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateReadyForIntegration, visitor.State)

	// ready_for_integration -> closed(member)
	visitor, err = env.svc.Integrate(ctx, visitorID, districtID, "")
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateClosed, visitor.State)
	assert.Equal(t, models.ClosedOutcomeMember, visitor.ClosedOutcome)
	assert.True(t, visitor.Converted)
	assert.NotEmpty(t, visitor.MemberRecordID)

	// 会友记录已创建并关联回新朋友
	member, err := env.members.FindMemberByVisitorRef(ctx, visitorID)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, "王新朋友", member.Name)
	assert.Equal(t, models.MemberStatusActive, member.Status)
}

func TestStateAlwaysDefined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	// 任意一串合法与非法调用后，状态始终是五个已定义状态之一
	_, _ = env.svc.Restore(ctx, visitorID)
	_, _ = env.svc.Archive(ctx, visitorID, "外出")
	_, _ = env.svc.Restore(ctx, visitorID)
	_, _ = env.svc.MarkReady(ctx, visitorID)
	_, _ = env.svc.Unmark(ctx, visitorID)
	_, _ = env.svc.Close(ctx, visitorID, "失联")
	_, _ = env.svc.MarkReady(ctx, visitorID)

	visitor, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.True(t, models.IsValidVisitorState(visitor.State))
}

func TestGuardRequiresAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 手工构造一个跟进中但无分配的新朋友：记录数充足也必须被拒绝
	visitor := &models.Visitor{
		Name:           "孤儿记录",
		Phone:          "13800003333",
		State:          models.VisitorStateEngaged,
		FirstVisitDate: time.Now(),
		LastUpdateTime: time.Now(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	visitorID, err := env.store.InsertVisitor(ctx, visitor)
	require.NoError(t, err)

	_, _, err = env.svc.AddFollowUp(ctx, visitorID, followUpInput("someone"))
	require.NoError(t, err)

	_, err = env.svc.MarkReady(ctx, visitorID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeGuardNotSatisfied))

	_, err = env.svc.Close(ctx, visitorID, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeGuardNotSatisfied))

	// 状态保持不变
	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, got.State)
}

func TestGuardRequiresFollowUpHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, _ := env.seedEngagedVisitor(t)

	// 已分配但没有任何跟进记录
	_, err := env.svc.MarkReady(ctx, visitorID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeGuardNotSatisfied))

	_, err = env.svc.Close(ctx, visitorID, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeGuardNotSatisfied))

	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, got.State)
}

func TestBlockedCloseKeepsEngaged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitor := &models.Visitor{
		Name:           "未分配",
		Phone:          "13800004444",
		State:          models.VisitorStateEngaged,
		FirstVisitDate: time.Now(),
		LastUpdateTime: time.Now(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	visitorID, err := env.store.InsertVisitor(ctx, visitor)
	require.NoError(t, err)

	_, err = env.svc.Close(ctx, visitorID, "随意结案")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeGuardNotSatisfied))

	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, got.State)
	assert.Empty(t, got.CloseReason)
}

func TestClosedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	visitor, err := env.svc.Close(ctx, visitorID, "已搬离本市")
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateClosed, visitor.State)
	assert.Equal(t, models.ClosedOutcomeInactive, visitor.ClosedOutcome)
	assert.Equal(t, "已搬离本市", visitor.CloseReason)

	// 结案后所有流转一律拒绝
	_, err = env.svc.Assign(ctx, visitorID, caretakerID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
	_, err = env.svc.Reassign(ctx, visitorID, caretakerID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
	_, _, err = env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
	_, err = env.svc.MarkReady(ctx, visitorID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
	_, err = env.svc.Archive(ctx, visitorID, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
	_, err = env.svc.Restore(ctx, visitorID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
	_, err = env.svc.Close(ctx, visitorID, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))

	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateClosed, got.State)
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	visitor, err := env.svc.Archive(ctx, visitorID, "一段时间无法联系")
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateArchived, visitor.State)
	assert.True(t, visitor.Archived)
	assert.Equal(t, "一段时间无法联系", visitor.ArchiveReason)

	visitor, err = env.svc.Restore(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, visitor.State)
	assert.False(t, visitor.Archived)

	// 往返后分配与跟进记录保持不变
	assert.Equal(t, caretakerID, visitor.AssignedTo)
	count, err := env.store.CountFollowUps(ctx, visitorID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRestoreOnlyFromArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, _ := env.seedEngagedVisitor(t)

	_, err := env.svc.Restore(ctx, visitorID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))

	newVisitorID := env.seedVisitor(t, "未分配新朋友")
	_, err = env.svc.Restore(ctx, newVisitorID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
}

func TestArchivedCanCloseWithGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	_, err = env.svc.Archive(ctx, visitorID, "")
	require.NoError(t, err)

	visitor, err := env.svc.Close(ctx, visitorID, "长期无回应")
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateClosed, visitor.State)
	assert.Equal(t, models.ClosedOutcomeInactive, visitor.ClosedOutcome)
}

func TestUnmarkReturnsToEngaged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	_, err = env.svc.MarkReady(ctx, visitorID)
	require.NoError(t, err)

	visitor, err := env.svc.Unmark(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, visitor.State)
}

func TestMarkReadyNotifiesStakeholders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	_, err = env.svc.MarkReady(ctx, visitorID)
	require.NoError(t, err)

	require.Len(t, env.notifier.readyCalls, 1)
	assert.Equal(t, visitorID, env.notifier.readyCalls[0])
}

func TestMarkReadySucceedsWhenNotifyFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.notifier.readyErr = errors.New("通知服务不可用")

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	// 通知失败不影响已完成的状态流转
	visitor, err := env.svc.MarkReady(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateReadyForIntegration, visitor.State)

	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateReadyForIntegration, got.State)
}

func TestAllowedEvents(t *testing.T) {
	tests := []struct {
		name  string
		state models.VisitorState
		want  []models.VisitorEvent
	}{
		{
			name:  "新登记",
			state: models.VisitorStateNew,
			want:  []models.VisitorEvent{models.VisitorEventAssign},
		},
		{
			name:  "跟进中",
			state: models.VisitorStateEngaged,
			want: []models.VisitorEvent{
				models.VisitorEventReassign,
				models.VisitorEventAddFollowUp,
				models.VisitorEventMarkReady,
				models.VisitorEventArchive,
				models.VisitorEventClose,
			},
		},
		{
			name:  "已搁置",
			state: models.VisitorStateArchived,
			want:  []models.VisitorEvent{models.VisitorEventClose, models.VisitorEventRestore},
		},
		{
			name:  "待转入",
			state: models.VisitorStateReadyForIntegration,
			want:  []models.VisitorEvent{models.VisitorEventUnmark, models.VisitorEventIntegrate},
		},
		{
			name:  "已结案",
			state: models.VisitorStateClosed,
			want:  []models.VisitorEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedEvents(tt.state))
		})
	}
}

func TestGetVisitorSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, _ := env.seedEngagedVisitor(t)

	snapshot, err := env.svc.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, snapshot.State)
	assert.Contains(t, snapshot.AllowedEvents, models.VisitorEventMarkReady)
	assert.NotContains(t, snapshot.AllowedEvents, models.VisitorEventAssign)
}

func TestConcurrentMarkReadyExactlyOneSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)
	_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.MarkReady(ctx, visitorID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	rejected := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
		rejected++
	}

	// 同一新朋友上的流转串行化，只观察到一种合法顺序
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateReadyForIntegration, got.State)
}

func TestConcurrentFollowUpsNeverLoseRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID, caretakerID := env.seedEngagedVisitor(t)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := env.svc.AddFollowUp(ctx, visitorID, followUpInput(caretakerID))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := env.store.CountFollowUps(ctx, visitorID)
	require.NoError(t, err)
	assert.EqualValues(t, workers, count)

	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.EqualValues(t, workers, got.FollowUpCount)
}

func TestDifferentVisitorsProceedIndependently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	caretakerID := env.seedCaretaker(t, "李姊妹")
	first := env.seedVisitor(t, "甲")
	second := env.seedVisitor(t, "乙")

	var wg sync.WaitGroup
	for _, id := range []string{first, second} {
		wg.Add(1)
		go func(visitorID string) {
			defer wg.Done()
			_, err := env.svc.Assign(ctx, visitorID, caretakerID)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for _, id := range []string{first, second} {
		got, err := env.store.GetVisitor(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.VisitorStateEngaged, got.State)
	}
}
