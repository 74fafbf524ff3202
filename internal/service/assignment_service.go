package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/internal/model"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
	"github.com/MdKasif0/FairDesk-v2/pkg/calendar"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

// 排座服务错误定义
var (
	ErrInvalidDate        = errors.New("日期格式无效，应为 yyyy-mm-dd")
	ErrInvalidDateRange   = errors.New("日期范围无效，起始日期不能晚于结束日期")
	ErrGroupNotFound      = errors.New("小组不存在")
	ErrGroupMisconfigured = errors.New("小组配置异常：成员数与座位数不一致")
	ErrAssignmentNotFound = errors.New("排座记录不存在")
	ErrNonWorkingDay      = errors.New("非工作日没有排座，不能重排")
)

// AssignmentService 排座服务接口
//
// 排座是按需物化的：查询某个工作日时若无记录，先从最近的历史锚点
// 推导出该日的座位轮换结果并落库，再返回。同一日期的重复推导结果
// 恒等（确定性），因此并发创建也是幂等的。
type AssignmentService interface {
	// GetOrCreate 获取某日排座，不存在则推导并落库
	// 周末只读穿透：返回最近一个工作日的排座，不落库
	GetOrCreate(ctx context.Context, date, groupID string) ([]model.Assignment, error)
	// GetRange 获取日期区间内的排座，缺失的工作日顺序补齐
	GetRange(ctx context.Context, from, to, groupID string) ([]model.Assignment, error)
	// ToggleLock 翻转某条排座记录的锁定标记
	ToggleLock(ctx context.Context, assignmentID string) (*model.Assignment, error)
	// Randomize 随机重排某日未锁定的座位，锁定座位保持不动
	// 周末只读穿透不落库，非工作日返回 ErrNonWorkingDay
	Randomize(ctx context.Context, date, groupID string) ([]model.Assignment, error)
	// ListByUser 查询某用户在区间内的排座记录
	ListByUser(ctx context.Context, groupID, userID, from, to string) ([]model.Assignment, error)
	// ListHistory 分页查询历史排座记录
	ListHistory(ctx context.Context, groupID string, page, pageSize int) ([]model.Assignment, int64, error)
}

type assignmentService struct {
	repo   *repository.Repository
	events EventPublisher
	logger *zap.Logger
	rng    *rand.Rand
}

// NewAssignmentService 创建排座服务实例
func NewAssignmentService(repo *repository.Repository, events EventPublisher, logger *zap.Logger) AssignmentService {
	return &assignmentService{
		repo:   repo,
		events: events,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *assignmentService) GetOrCreate(ctx context.Context, date, groupID string) ([]model.Assignment, error) {
	day, err := calendar.Parse(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	existing, err := s.repo.Assignment.ListByDate(ctx, date, groupID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// 周末不生成记录，只读穿透到最近一个有排座的日期
	if !calendar.IsWorkingDay(day) {
		lastDate, err := s.repo.Assignment.LastDateBefore(ctx, groupID, date)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Assignment{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.repo.Assignment.ListByDate(ctx, lastDate, groupID)
	}

	assignments, err := s.materializeDay(ctx, group, date)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Assignment.Upsert(ctx, assignments); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
		Type:    redis.EventAssignmentsChanged,
		GroupID: groupID,
		Date:    date,
	})
	return s.repo.Assignment.ListByDate(ctx, date, groupID)
}

func (s *assignmentService) GetRange(ctx context.Context, from, to, groupID string) ([]model.Assignment, error) {
	start, err := calendar.Parse(from)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := calendar.Parse(to)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Assignment.ListRange(ctx, groupID, from, to)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.Date] = true
	}

	// 顺序补齐：必须从早到晚逐日推导，后一日的锚点可能是前一日刚生成的记录
	created := false
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !calendar.IsWorkingDay(d) || seen[calendar.Format(d)] {
			continue
		}
		date := calendar.Format(d)
		assignments, err := s.materializeDay(ctx, group, date)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Assignment.Upsert(ctx, assignments); err != nil {
			return nil, err
		}
		created = true
	}

	if created {
		publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
			Type:    redis.EventAssignmentsChanged,
			GroupID: groupID,
			Date:    from,
		})
	}
	return s.repo.Assignment.ListRange(ctx, groupID, from, to)
}

func (s *assignmentService) ToggleLock(ctx context.Context, assignmentID string) (*model.Assignment, error) {
	assignment, err := s.repo.Assignment.ToggleLock(ctx, assignmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
		Type:    redis.EventAssignmentsChanged,
		GroupID: assignment.GroupID,
		Date:    assignment.Date,
	})
	return assignment, nil
}

func (s *assignmentService) Randomize(ctx context.Context, date, groupID string) ([]model.Assignment, error) {
	day, err := calendar.Parse(date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	// 周末的读穿透结果带的是别的日期的主键，不能当作当日记录重排
	if !calendar.IsWorkingDay(day) {
		return nil, ErrNonWorkingDay
	}

	current, err := s.GetOrCreate(ctx, date, groupID)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, ErrAssignmentNotFound
	}

	// 锁定的座位原样保留，未锁定的座位在未锁定用户间洗牌
	replacement := make([]model.Assignment, 0, len(current))
	var unlocked []model.Assignment
	for _, a := range current {
		if a.IsLocked {
			replacement = append(replacement, model.Assignment{
				AssignmentID: a.AssignmentID,
				Date:         a.Date,
				UserID:       a.UserID,
				SeatID:       a.SeatID,
				GroupID:      a.GroupID,
				IsLocked:     true,
			})
		} else {
			unlocked = append(unlocked, a)
		}
	}

	pool := make([]string, len(unlocked))
	for i, a := range unlocked {
		pool[i] = a.SeatID
	}
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	for i, a := range unlocked {
		replacement = append(replacement, model.Assignment{
			AssignmentID: a.AssignmentID,
			Date:         a.Date,
			UserID:       a.UserID,
			SeatID:       pool[i],
			GroupID:      a.GroupID,
		})
	}

	if err := s.repo.Assignment.ReplaceDay(ctx, date, groupID, replacement); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
		Type:    redis.EventAssignmentsChanged,
		GroupID: groupID,
		Date:    date,
	})
	return s.repo.Assignment.ListByDate(ctx, date, groupID)
}

func (s *assignmentService) ListByUser(ctx context.Context, groupID, userID, from, to string) ([]model.Assignment, error) {
	if _, err := calendar.Parse(from); err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := calendar.Parse(to); err != nil {
		return nil, ErrInvalidDate
	}
	return s.repo.Assignment.ListByUser(ctx, groupID, userID, from, to)
}

func (s *assignmentService) ListHistory(ctx context.Context, groupID string, page, pageSize int) ([]model.Assignment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.Assignment.ListHistory(ctx, groupID, (page-1)*pageSize, pageSize)
}

// ── 轮换推导 ──

func (s *assignmentService) getGroup(ctx context.Context, groupID string) (*model.Group, error) {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(group.MemberIDs) != len(group.SeatIDs) || len(group.MemberIDs) == 0 {
		return nil, ErrGroupMisconfigured
	}
	return group, nil
}

// materializeDay 推导某个工作日的排座
//
// 无历史锚点时按小组配置顺序初始对位：第 i 名成员坐第 i 个座位。
// 有锚点时，锁定的记录原样顺延（用户、座位、锁定标记都不变），
// 其余用户在"未锁定座位环"上整体前进 k 步，k 为锚点日到目标日
// 之间的工作日数。锚点座位不在环上的用户（新成员、座位被调整过）
// 退化为按座位顺序补第一个空位。
func (s *assignmentService) materializeDay(ctx context.Context, group *model.Group, date string) ([]model.Assignment, error) {
	day, _ := calendar.Parse(date)

	anchorDate, err := s.repo.Assignment.LastDateBefore(ctx, group.GroupID, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.seedDay(group, date), nil
	}
	if err != nil {
		return nil, err
	}

	anchor, err := s.repo.Assignment.ListByDate(ctx, anchorDate, group.GroupID)
	if err != nil {
		return nil, err
	}
	if len(anchor) == 0 {
		return s.seedDay(group, date), nil
	}

	anchorDay, err := calendar.Parse(anchorDate)
	if err != nil {
		return nil, err
	}
	k := calendar.CountWorkingDays(anchorDay, day)

	lastSeatByUser := make(map[string]string, len(anchor))
	lockedSeats := make(map[string]bool)
	var lockedRows []model.Assignment
	for _, a := range anchor {
		lastSeatByUser[a.UserID] = a.SeatID
		if a.IsLocked {
			lockedSeats[a.SeatID] = true
			lockedRows = append(lockedRows, a)
		}
	}

	// 未锁定座位构成轮换环，顺序取小组配置的座位顺序
	var cycle []string
	cycleIndex := make(map[string]int)
	for _, seatID := range group.SeatIDs {
		if !lockedSeats[seatID] {
			cycleIndex[seatID] = len(cycle)
			cycle = append(cycle, seatID)
		}
	}

	assignments := make([]model.Assignment, 0, len(group.MemberIDs))
	claimed := make(map[string]bool, len(group.MemberIDs))

	// 锁定记录顺延：仅当用户仍在组内、座位仍在组内
	for _, a := range lockedRows {
		if !group.MemberIDs.Contains(a.UserID) || !group.SeatIDs.Contains(a.SeatID) {
			continue
		}
		claimed[a.SeatID] = true
		assignments = append(assignments, model.Assignment{
			AssignmentID: model.MakeAssignmentID(date, a.UserID),
			Date:         date,
			UserID:       a.UserID,
			SeatID:       a.SeatID,
			GroupID:      group.GroupID,
			IsLocked:     true,
		})
	}
	lockedUsers := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		lockedUsers[a.UserID] = true
	}

	var fallback []string
	for _, userID := range group.MemberIDs {
		if lockedUsers[userID] {
			continue
		}
		lastSeat, hadSeat := lastSeatByUser[userID]
		pos, inCycle := cycleIndex[lastSeat]
		if !hadSeat || !inCycle || len(cycle) == 0 {
			fallback = append(fallback, userID)
			continue
		}
		next := cycle[(pos+k)%len(cycle)]
		if claimed[next] {
			fallback = append(fallback, userID)
			continue
		}
		claimed[next] = true
		assignments = append(assignments, model.Assignment{
			AssignmentID: model.MakeAssignmentID(date, userID),
			Date:         date,
			UserID:       userID,
			SeatID:       next,
			GroupID:      group.GroupID,
		})
	}

	// 兜底对位：按座位顺序补空位
	for _, userID := range fallback {
		for _, seatID := range group.SeatIDs {
			if claimed[seatID] {
				continue
			}
			claimed[seatID] = true
			assignments = append(assignments, model.Assignment{
				AssignmentID: model.MakeAssignmentID(date, userID),
				Date:         date,
				UserID:       userID,
				SeatID:       seatID,
				GroupID:      group.GroupID,
			})
			break
		}
	}

	return assignments, nil
}

// seedDay 首次排座：成员与座位按小组配置顺序一一对位
func (s *assignmentService) seedDay(group *model.Group, date string) []model.Assignment {
	assignments := make([]model.Assignment, 0, len(group.MemberIDs))
	for i, userID := range group.MemberIDs {
		assignments = append(assignments, model.Assignment{
			AssignmentID: model.MakeAssignmentID(date, userID),
			Date:         date,
			UserID:       userID,
			SeatID:       group.SeatIDs[i],
			GroupID:      group.GroupID,
		})
	}
	return assignments
}
