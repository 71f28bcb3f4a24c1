package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"
)

func newVisitor(name string, state models.VisitorState) *models.Visitor {
	now := time.Now()
	return &models.Visitor{
		Name:           name,
		Phone:          "13800005555",
		State:          state,
		FirstVisitDate: now,
		LastUpdateTime: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryVisitorStoreRoundTrip(t *testing.T) {
	store := NewMemoryVisitorStore()
	ctx := context.Background()

	id, err := store.InsertVisitor(ctx, newVisitor("王新朋友", models.VisitorStateNew))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.GetVisitor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "王新朋友", got.Name)
	assert.Equal(t, models.VisitorStateNew, got.State)

	// 读出的是副本，改它不影响存储
	got.Name = "被篡改"
	again, err := store.GetVisitor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "王新朋友", again.Name)

	got.Name = "王新朋友"
	got.State = models.VisitorStateEngaged
	require.NoError(t, store.SaveVisitor(ctx, got))

	saved, err := store.GetVisitor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorStateEngaged, saved.State)
}

func TestMemoryVisitorStoreNotFound(t *testing.T) {
	store := NewMemoryVisitorStore()
	ctx := context.Background()

	_, err := store.GetVisitor(ctx, "64b000000000000000000000")
	assert.True(t, utils.IsErrorCode(err, utils.ErrCodeNotFound))

	err = store.SaveVisitor(ctx, newVisitor("不存在", models.VisitorStateNew))
	assert.Error(t, err)
}

func TestMemoryVisitorStoreListFilters(t *testing.T) {
	store := NewMemoryVisitorStore()
	ctx := context.Background()

	engaged := newVisitor("甲", models.VisitorStateEngaged)
	engaged.AssignedTo = "u1"
	_, err := store.InsertVisitor(ctx, engaged)
	require.NoError(t, err)

	archived := newVisitor("乙", models.VisitorStateArchived)
	archived.Archived = true
	_, err = store.InsertVisitor(ctx, archived)
	require.NoError(t, err)

	all, err := store.ListVisitors(ctx, models.VisitorFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byState, err := store.ListVisitors(ctx, models.VisitorFilter{State: models.VisitorStateEngaged})
	require.NoError(t, err)
	require.Len(t, byState, 1)
	assert.Equal(t, "甲", byState[0].Name)

	byAssignee, err := store.ListVisitors(ctx, models.VisitorFilter{AssignedTo: "u1"})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, "甲", byAssignee[0].Name)

	byKeyword, err := store.ListVisitors(ctx, models.VisitorFilter{Keyword: "乙"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "乙", byKeyword[0].Name)
}

func TestMemoryVisitorStoreFollowUps(t *testing.T) {
	store := NewMemoryVisitorStore()
	ctx := context.Background()

	id, err := store.InsertVisitor(ctx, newVisitor("王新朋友", models.VisitorStateEngaged))
	require.NoError(t, err)

	for i, note := range []string{"第一次", "第二次"} {
		err := store.AppendFollowUp(ctx, &models.VisitorFollowUpRecord{
			VisitorID:   id,
			Date:        time.Now(),
			Method:      models.FollowUpMethodPhone,
			Outcome:     models.FollowUpOutcomeSuccessful,
			ContactedBy: "u1",
			Note:        note,
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	count, err := store.CountFollowUps(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	records, err := store.ListFollowUps(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "第一次", records[0].Note)
	assert.Equal(t, "第二次", records[1].Note)
	assert.False(t, records[0].ID.IsZero())
}

func TestMemoryVisitorStoreListDueFollowUps(t *testing.T) {
	store := NewMemoryVisitorStore()
	ctx := context.Background()

	id, err := store.InsertVisitor(ctx, newVisitor("王新朋友", models.VisitorStateEngaged))
	require.NoError(t, err)

	dayStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	dayEnd := dayStart.Add(24 * time.Hour)
	inWindow := dayStart.Add(10 * time.Hour)
	outOfWindow := dayEnd.Add(time.Hour)

	addRecord := func(due *time.Time) {
		require.NoError(t, store.AppendFollowUp(ctx, &models.VisitorFollowUpRecord{
			VisitorID:        id,
			Date:             dayStart,
			Method:           models.FollowUpMethodPhone,
			Outcome:          models.FollowUpOutcomeFollowUpNeeded,
			ContactedBy:      "u1",
			NextFollowUpDate: due,
			CreatedAt:        time.Now(),
		}))
	}
	addRecord(&inWindow)
	addRecord(&outOfWindow)
	addRecord(nil)

	due, err := store.ListDueFollowUps(ctx, dayStart, dayEnd)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, inWindow, *due[0].NextFollowUpDate)
}

func TestMemoryMemberDirectory(t *testing.T) {
	dir := NewMemoryMemberDirectory()
	ctx := context.Background()

	activeID := dir.AddMember(models.Member{Name: "张弟兄", Status: models.MemberStatusActive})
	inactiveID := dir.AddMember(models.Member{Name: "前会友", Status: models.MemberStatusInactive})

	member, err := dir.ResolveActiveMember(ctx, activeID)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, "张弟兄", member.Name)

	// 停用会友与非法ID都按不存在处理
	member, err = dir.ResolveActiveMember(ctx, inactiveID)
	require.NoError(t, err)
	assert.Nil(t, member)

	member, err = dir.ResolveActiveMember(ctx, "not-a-hex-id")
	require.NoError(t, err)
	assert.Nil(t, member)

	districtID := dir.AddDistrict(models.District{Name: "东区"})
	district, err := dir.ResolveDistrict(ctx, districtID)
	require.NoError(t, err)
	require.NotNil(t, district)
	assert.Equal(t, "东区", district.Name)

	unitID := dir.AddUnit(models.Unit{Name: "东区一组", DistrictID: districtID})
	unit, err := dir.ResolveUnit(ctx, unitID)
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.Equal(t, districtID, unit.DistrictID)

	missing, err := dir.ResolveDistrict(ctx, "64b000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryMemberDirectoryCreateAndFind(t *testing.T) {
	dir := NewMemoryMemberDirectory()
	ctx := context.Background()

	id, err := dir.CreateMember(ctx, &models.Member{
		Name:       "王新朋友",
		Phone:      "13800001111",
		Status:     models.MemberStatusActive,
		VisitorRef: "64b000000000000000000001",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	found, err := dir.FindMemberByVisitorRef(ctx, "64b000000000000000000001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID.Hex())

	none, err := dir.FindMemberByVisitorRef(ctx, "64b000000000000000000002")
	require.NoError(t, err)
	assert.Nil(t, none)
}
