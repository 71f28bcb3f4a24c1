package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luminchurch/chms_end/models"
	"github.com/luminchurch/chms_end/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryVisitorStore 新朋友存储的内存实现，供测试使用
type MemoryVisitorStore struct {
	mu        sync.RWMutex
	visitors  map[string]models.Visitor
	followUps []models.VisitorFollowUpRecord
}

// NewMemoryVisitorStore 创建内存新朋友存储
func NewMemoryVisitorStore() *MemoryVisitorStore {
	return &MemoryVisitorStore{
		visitors: make(map[string]models.Visitor),
	}
}

// GetVisitor 按ID查询新朋友
func (s *MemoryVisitorStore) GetVisitor(ctx context.Context, id string) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visitor, ok := s.visitors[id]
	if !ok {
		return nil, utils.CreateNotFoundError("新朋友")
	}
	copied := visitor
	return &copied, nil
}

// InsertVisitor 插入新朋友记录并回填ID
func (s *MemoryVisitorStore) InsertVisitor(ctx context.Context, visitor *models.Visitor) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if visitor.ID.IsZero() {
		visitor.ID = primitive.NewObjectID()
	}
	s.visitors[visitor.ID.Hex()] = *visitor
	return visitor.ID.Hex(), nil
}

// SaveVisitor 整体覆盖保存新朋友记录
func (s *MemoryVisitorStore) SaveVisitor(ctx context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.visitors[visitor.ID.Hex()]; !ok {
		return utils.CreateNotFoundError("新朋友")
	}
	s.visitors[visitor.ID.Hex()] = *visitor
	return nil
}

// ListVisitors 按条件查询新朋友列表
func (s *MemoryVisitorStore) ListVisitors(ctx context.Context, filter models.VisitorFilter) ([]models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visitors []models.Visitor
	for _, visitor := range s.visitors {
		if filter.State != "" && visitor.State != filter.State {
			continue
		}
		if filter.AssignedTo != "" && visitor.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Keyword != "" &&
			!strings.Contains(visitor.Name, filter.Keyword) &&
			!strings.Contains(visitor.Phone, filter.Keyword) {
			continue
		}
		visitors = append(visitors, visitor)
	}

	sort.Slice(visitors, func(i, j int) bool {
		return visitors[i].LastUpdateTime.After(visitors[j].LastUpdateTime)
	})
	return visitors, nil
}

// AppendFollowUp 追加跟进记录并回填ID
func (s *MemoryVisitorStore) AppendFollowUp(ctx context.Context, record *models.VisitorFollowUpRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	s.followUps = append(s.followUps, *record)
	return nil
}

// ListFollowUps 按追加顺序返回某新朋友的跟进记录
func (s *MemoryVisitorStore) ListFollowUps(ctx context.Context, visitorID string) ([]models.VisitorFollowUpRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []models.VisitorFollowUpRecord
	for _, record := range s.followUps {
		if record.VisitorID == visitorID {
			records = append(records, record)
		}
	}
	return records, nil
}

// CountFollowUps 统计某新朋友的跟进记录条数
func (s *MemoryVisitorStore) CountFollowUps(ctx context.Context, visitorID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.followUps {
		if record.VisitorID == visitorID {
			count++
		}
	}
	return count, nil
}

// ListDueFollowUps 查询下次跟进提醒日期落在 [from, to) 区间内的跟进记录
func (s *MemoryVisitorStore) ListDueFollowUps(ctx context.Context, from, to time.Time) ([]models.VisitorFollowUpRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []models.VisitorFollowUpRecord
	for _, record := range s.followUps {
		if record.NextFollowUpDate == nil {
			continue
		}
		due := *record.NextFollowUpDate
		if (due.Equal(from) || due.After(from)) && due.Before(to) {
			records = append(records, record)
		}
	}
	return records, nil
}

// MemoryMemberDirectory 会友与教区目录的内存实现，供测试使用
type MemoryMemberDirectory struct {
	mu        sync.RWMutex
	members   map[string]models.Member
	districts map[string]models.District
	units     map[string]models.Unit

	// CreateMemberErr 设置后 CreateMember 直接返回该错误，用于模拟下游不可用
	CreateMemberErr error
}

// NewMemoryMemberDirectory 创建内存会友目录
func NewMemoryMemberDirectory() *MemoryMemberDirectory {
	return &MemoryMemberDirectory{
		members:   make(map[string]models.Member),
		districts: make(map[string]models.District),
		units:     make(map[string]models.Unit),
	}
}

// AddMember 预置一名会友，返回ID
func (d *MemoryMemberDirectory) AddMember(member models.Member) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if member.ID.IsZero() {
		member.ID = primitive.NewObjectID()
	}
	d.members[member.ID.Hex()] = member
	return member.ID.Hex()
}

// AddDistrict 预置一个教区，返回ID
func (d *MemoryMemberDirectory) AddDistrict(district models.District) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if district.ID.IsZero() {
		district.ID = primitive.NewObjectID()
	}
	d.districts[district.ID.Hex()] = district
	return district.ID.Hex()
}

// AddUnit 预置一个小组，返回ID
func (d *MemoryMemberDirectory) AddUnit(unit models.Unit) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if unit.ID.IsZero() {
		unit.ID = primitive.NewObjectID()
	}
	d.units[unit.ID.Hex()] = unit
	return unit.ID.Hex()
}

// ResolveActiveMember 解析启用状态的会友，不存在或未启用时返回 (nil, nil)
func (d *MemoryMemberDirectory) ResolveActiveMember(ctx context.Context, id string) (*models.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	member, ok := d.members[id]
	if !ok || member.Status != models.MemberStatusActive {
		return nil, nil
	}
	copied := member
	return &copied, nil
}

// CreateMember 创建会友记录，返回新记录ID
func (d *MemoryMemberDirectory) CreateMember(ctx context.Context, member *models.Member) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.CreateMemberErr != nil {
		return "", d.CreateMemberErr
	}

	if member.ID.IsZero() {
		member.ID = primitive.NewObjectID()
	}
	d.members[member.ID.Hex()] = *member
	return member.ID.Hex(), nil
}

// FindMemberByVisitorRef 按关联的新朋友ID查找会友，不存在时返回 (nil, nil)
func (d *MemoryMemberDirectory) FindMemberByVisitorRef(ctx context.Context, visitorID string) (*models.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, member := range d.members {
		if member.VisitorRef == visitorID {
			copied := member
			return &copied, nil
		}
	}
	return nil, nil
}

// ResolveDistrict 解析教区，不存在时返回 (nil, nil)
func (d *MemoryMemberDirectory) ResolveDistrict(ctx context.Context, id string) (*models.District, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	district, ok := d.districts[id]
	if !ok {
		return nil, nil
	}
	copied := district
	return &copied, nil
}

// ResolveUnit 解析小组，不存在时返回 (nil, nil)
func (d *MemoryMemberDirectory) ResolveUnit(ctx context.Context, id string) (*models.Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	unit, ok := d.units[id]
	if !ok {
		return nil, nil
	}
	copied := unit
	return &copied, nil
}
