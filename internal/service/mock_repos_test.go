package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/internal/ai"
	"github.com/MdKasif0/FairDesk-v2/internal/model"
	pkgerrors "github.com/MdKasif0/FairDesk-v2/pkg/errors"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

// ── Mock GroupRepository ──

type mockGroupRepo struct {
	groups map[string]*model.Group
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{groups: make(map[string]*model.Group)}
}

func (m *mockGroupRepo) Create(_ context.Context, group *model.Group) error {
	if group.GroupID == "" {
		group.GroupID = "grp-" + group.Name
	}
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) List(_ context.Context) ([]model.Group, error) {
	var result []model.Group
	for _, g := range m.groups {
		result = append(result, *g)
	}
	return result, nil
}

func (m *mockGroupRepo) Update(_ context.Context, group *model.Group) error {
	if _, ok := m.groups[group.GroupID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.groups[group.GroupID] = group
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByGroup(_ context.Context, groupID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.GroupID == groupID {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock SeatRepository ──

type mockSeatRepo struct {
	seats map[string]*model.Seat
}

func newMockSeatRepo() *mockSeatRepo {
	return &mockSeatRepo{seats: make(map[string]*model.Seat)}
}

func (m *mockSeatRepo) GetByID(_ context.Context, id string) (*model.Seat, error) {
	if s, ok := m.seats[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSeatRepo) ListByGroup(_ context.Context, groupID string) ([]model.Seat, error) {
	var result []model.Seat
	for _, s := range m.seats {
		if s.GroupID == groupID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *mockSeatRepo) ListByIDs(_ context.Context, ids []string) ([]model.Seat, error) {
	var result []model.Seat
	for _, id := range ids {
		if s, ok := m.seats[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.Assignment // key = assignment_id
	upsertCalls int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.Assignment)}
}

func (m *mockAssignmentRepo) ListByDate(_ context.Context, date, groupID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if a.Date == date && a.GroupID == groupID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SeatID < result[j].SeatID })
	return result, nil
}

func (m *mockAssignmentRepo) LastDateBefore(_ context.Context, groupID, before string) (string, error) {
	last := ""
	for _, a := range m.assignments {
		if a.GroupID == groupID && a.Date < before && a.Date > last {
			last = a.Date
		}
	}
	if last == "" {
		return "", gorm.ErrRecordNotFound
	}
	return last, nil
}

func (m *mockAssignmentRepo) Upsert(_ context.Context, assignments []model.Assignment) error {
	m.upsertCalls++
	for i := range assignments {
		a := assignments[i]
		m.assignments[a.AssignmentID] = &a
	}
	return nil
}

func (m *mockAssignmentRepo) ReplaceDay(_ context.Context, date, groupID string, assignments []model.Assignment) error {
	for id, a := range m.assignments {
		if a.Date == date && a.GroupID == groupID {
			delete(m.assignments, id)
		}
	}
	for i := range assignments {
		a := assignments[i]
		m.assignments[a.AssignmentID] = &a
	}
	return nil
}

func (m *mockAssignmentRepo) Swap(_ context.Context, idA, idB string) error {
	a, okA := m.assignments[idA]
	b, okB := m.assignments[idB]
	if !okA || !okB {
		return gorm.ErrRecordNotFound
	}
	a.SeatID, b.SeatID = b.SeatID, a.SeatID
	return nil
}

func (m *mockAssignmentRepo) ToggleLock(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a.IsLocked = !a.IsLocked
	copied := *a
	return &copied, nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListRange(_ context.Context, groupID, from, to string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if a.GroupID == groupID && a.Date >= from && a.Date <= to {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].SeatID < result[j].SeatID
	})
	return result, nil
}

func (m *mockAssignmentRepo) ListByUser(_ context.Context, groupID, userID, from, to string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if a.GroupID == groupID && a.UserID == userID && a.Date >= from && a.Date <= to {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (m *mockAssignmentRepo) ListHistory(_ context.Context, groupID string, offset, limit int) ([]model.Assignment, int64, error) {
	var all []model.Assignment
	for _, a := range m.assignments {
		if a.GroupID == groupID {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Assignment{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock ChangeRequestRepository ──

type mockChangeRequestRepo struct {
	requests    map[string]*model.ChangeRequest
	assignments *mockAssignmentRepo // 结算时交换座位
	nextID      int
}

func newMockChangeRequestRepo(assignments *mockAssignmentRepo) *mockChangeRequestRepo {
	return &mockChangeRequestRepo{
		requests:    make(map[string]*model.ChangeRequest),
		assignments: assignments,
	}
}

func (m *mockChangeRequestRepo) Create(_ context.Context, req *model.ChangeRequest) error {
	if req.ChangeRequestID == "" {
		m.nextID++
		req.ChangeRequestID = fmt.Sprintf("cr-%d", m.nextID)
	}
	copied := *req
	m.requests[req.ChangeRequestID] = &copied
	return nil
}

func (m *mockChangeRequestRepo) GetByID(_ context.Context, id string) (*model.ChangeRequest, error) {
	if r, ok := m.requests[id]; ok {
		copied := *r
		copied.Approvals = append(model.StringArray{}, r.Approvals...)
		copied.Rejections = append(model.StringArray{}, r.Rejections...)
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChangeRequestRepo) Update(_ context.Context, req *model.ChangeRequest) error {
	stored, ok := m.requests[req.ChangeRequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	copied := *req
	copied.Version = req.Version + 1
	m.requests[req.ChangeRequestID] = &copied
	req.Version = copied.Version
	return nil
}

func (m *mockChangeRequestRepo) UpdateWithSettlement(ctx context.Context, req *model.ChangeRequest, idA, idB string) error {
	stored, ok := m.requests[req.ChangeRequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// 与真实实现同序：先校验两条排座记录，再推进版本，最后交换
	if _, err := m.assignments.GetByID(ctx, idA); err != nil {
		return err
	}
	if _, err := m.assignments.GetByID(ctx, idB); err != nil {
		return err
	}
	if stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if err := m.assignments.Swap(ctx, idA, idB); err != nil {
		return err
	}
	copied := *req
	copied.Version = req.Version + 1
	m.requests[req.ChangeRequestID] = &copied
	req.Version = copied.Version
	return nil
}

func (m *mockChangeRequestRepo) ListPending(_ context.Context, groupID string) ([]model.ChangeRequest, error) {
	var result []model.ChangeRequest
	for _, r := range m.requests {
		if r.GroupID == groupID && r.Status == model.StatusPending {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockChangeRequestRepo) ListApproved(_ context.Context, groupID string) ([]model.ChangeRequest, error) {
	var result []model.ChangeRequest
	for _, r := range m.requests {
		if r.GroupID == groupID && r.Status == model.StatusApproved {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockChangeRequestRepo) ListHistory(_ context.Context, groupID string, offset, limit int) ([]model.ChangeRequest, int64, error) {
	var all []model.ChangeRequest
	for _, r := range m.requests {
		if r.GroupID == groupID {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ChangeRequestID < all[j].ChangeRequestID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.ChangeRequest{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock EventPublisher ──

type mockEventPublisher struct {
	events []redis.SeatingEvent
	err    error
}

func (m *mockEventPublisher) PublishSeatingEvent(_ context.Context, ev redis.SeatingEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

// ── Mock AI 客户端 ──

type mockSuggestionClient struct {
	schedule map[string]string
	err      error
	lastIn   ai.SuggestionInput
}

func (m *mockSuggestionClient) SuggestArrangement(_ context.Context, input ai.SuggestionInput) (map[string]string, error) {
	m.lastIn = input
	if m.err != nil {
		return nil, m.err
	}
	return m.schedule, nil
}

type mockAlertClient struct {
	message string
	err     error
	lastIn  ai.AlertInput
	calls   int
}

func (m *mockAlertClient) AlertMessage(_ context.Context, input ai.AlertInput) (string, error) {
	m.calls++
	m.lastIn = input
	if m.err != nil {
		return "", m.err
	}
	return m.message, nil
}

var errMockAI = errors.New("mock ai failure")
