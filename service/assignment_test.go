package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

func TestAssignUnknownAssignee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID := env.seedVisitor(t, "王新朋友")

	_, err := env.svc.Assign(ctx, visitorID, "64b000000000000000000000")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeUnknownAssignee))

	// 分配失败不改变状态
	got, err := env.store.GetVisitor(ctx, visitorID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateNew, got.State)
	assert.Empty(t, got.AssignedTo)
}

func TestAssignInactiveMemberRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inactiveID := env.members.AddMember(models.Member{
		Name:   "已停用会友",
		Status: models.MemberStatusInactive,
	})
	visitorID := env.seedVisitor(t, "王新朋友")

	_, err := env.svc.Assign(ctx, visitorID, inactiveID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeUnknownAssignee))
}

func TestReassignLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.seedCaretaker(t, "张弟兄")
	second := env.seedCaretaker(t, "李姊妹")
	visitorID := env.seedVisitor(t, "王新朋友")

	_, err := env.svc.Assign(ctx, visitorID, first)
	require.NoError(t, err)

	visitor, err := env.svc.Reassign(ctx, visitorID, second)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, visitor.State)
	assert.Equal(t, second, visitor.AssignedTo)
	assert.Equal(t, "李姊妹", visitor.AssignedToName)

	// 改派回原跟进人同样有效
	visitor, err = env.svc.Reassign(ctx, visitorID, first)
	require.NoError(t, err)
	assert.Equal(t, first, visitor.AssignedTo)
}

func TestReassignRequiresEngaged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	caretakerID := env.seedCaretaker(t, "张弟兄")
	visitorID := env.seedVisitor(t, "王新朋友")

	// new 状态只能首次分配，不能改派
	_, err := env.svc.Reassign(ctx, visitorID, caretakerID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))

	// engaged 状态不能再次首次分配
	_, err = env.svc.Assign(ctx, visitorID, caretakerID)
	require.NoError(t, err)
	_, err = env.svc.Assign(ctx, visitorID, caretakerID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeInvalidTransition))
}

func TestCurrentAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visitorID := env.seedVisitor(t, "王新朋友")

	// 未分配时返回空
	assignment, err := env.svc.CurrentAssignment(ctx, visitorID)
	require.NoError(t, err)
	assert.Nil(t, assignment)

	caretakerID := env.seedCaretaker(t, "张弟兄")
	_, err = env.svc.Assign(ctx, visitorID, caretakerID)
	require.NoError(t, err)

	assignment, err = env.svc.CurrentAssignment(ctx, visitorID)
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, visitorID, assignment.VisitorID)
	assert.Equal(t, caretakerID, assignment.AssigneeID)
	assert.Equal(t, "张弟兄", assignment.AssigneeName)
	assert.False(t, assignment.AssignedAt.IsZero())
}
