package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/config"
	"github.com/MdKasif0/FairDesk-v2/internal/ai"
	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/model"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
	"github.com/MdKasif0/FairDesk-v2/pkg/calendar"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

// 智能排座服务错误定义
var (
	ErrSuggestionUnavailable = errors.New("智能排座服务未配置或不可用")
	ErrInvalidSchedule       = errors.New("排座方案无效：成员与座位必须一一对应")
)

// SuggestionService 智能排座建议服务接口
//
// 建议只读不落库；确认后通过 Apply 整日替换。锁定座位作为硬约束
// 传给生成方，返回方案若违反双射（成员、座位各出现一次）直接拒绝。
type SuggestionService interface {
	// Suggest 生成某日排座建议，返回 成员姓名 → 座位名称
	Suggest(ctx context.Context, date, groupID string) (*dto.SuggestionResponse, error)
	// Apply 应用排座方案，整日替换
	Apply(ctx context.Context, groupID string, req *dto.ApplyScheduleRequest) ([]model.Assignment, error)
}

type suggestionService struct {
	cfg       *config.AIConfig
	repo      *repository.Repository
	suggester ai.SuggestionClient
	events    EventPublisher
	logger    *zap.Logger
}

// NewSuggestionService 创建智能排座服务实例
func NewSuggestionService(cfg *config.Config, repo *repository.Repository, suggester ai.SuggestionClient, events EventPublisher, logger *zap.Logger) SuggestionService {
	return &suggestionService{
		cfg:       &cfg.AI,
		repo:      repo,
		suggester: suggester,
		events:    events,
		logger:    logger,
	}
}

// groupRoster 小组成员与座位的名称视图，name 与 ID 互查
type groupRoster struct {
	group      *model.Group
	userNames  []string // 按成员顺序
	seatNames  []string // 按座位顺序
	userByName map[string]string
	seatByName map[string]string
	nameByUser map[string]string
	nameBySeat map[string]string
}

func (s *suggestionService) loadRoster(ctx context.Context, groupID string) (*groupRoster, error) {
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

	users, err := s.repo.User.ListByIDs(ctx, group.MemberIDs)
	if err != nil {
		return nil, err
	}
	seats, err := s.repo.Seat.ListByIDs(ctx, group.SeatIDs)
	if err != nil {
		return nil, err
	}

	r := &groupRoster{
		group:      group,
		userByName: make(map[string]string, len(users)),
		seatByName: make(map[string]string, len(seats)),
		nameByUser: make(map[string]string, len(users)),
		nameBySeat: make(map[string]string, len(seats)),
	}
	for _, u := range users {
		r.userByName[u.Name] = u.UserID
		r.nameByUser[u.UserID] = u.Name
	}
	for _, seat := range seats {
		r.seatByName[seat.Name] = seat.SeatID
		r.nameBySeat[seat.SeatID] = seat.Name
	}
	for _, id := range group.MemberIDs {
		name, ok := r.nameByUser[id]
		if !ok {
			return nil, ErrGroupMisconfigured
		}
		r.userNames = append(r.userNames, name)
	}
	for _, id := range group.SeatIDs {
		name, ok := r.nameBySeat[id]
		if !ok {
			return nil, ErrGroupMisconfigured
		}
		r.seatNames = append(r.seatNames, name)
	}
	return r, nil
}

func (s *suggestionService) Suggest(ctx context.Context, date, groupID string) (*dto.SuggestionResponse, error) {
	if _, err := calendar.Parse(date); err != nil {
		return nil, ErrInvalidDate
	}
	if s.suggester == nil {
		return nil, ErrSuggestionUnavailable
	}

	roster, err := s.loadRoster(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// 历史偏好来自已通过的换座申请：提议人曾争取过哪些座位
	approved, err := s.repo.ChangeRequest.ListApproved(ctx, groupID)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string][]string)
	for _, req := range approved {
		userName, ok := roster.nameByUser[req.ProposingUserID]
		if !ok {
			continue
		}
		seatName, ok := roster.nameBySeat[req.RequestedSeatID]
		if !ok {
			continue
		}
		overrides[userName] = append(overrides[userName], seatName)
	}

	// 当日锁定座位是硬约束
	locked := make(map[string]string)
	current, err := s.repo.Assignment.ListByDate(ctx, date, groupID)
	if err != nil {
		return nil, err
	}
	for _, a := range current {
		if !a.IsLocked {
			continue
		}
		userName, uok := roster.nameByUser[a.UserID]
		seatName, sok := roster.nameBySeat[a.SeatID]
		if uok && sok {
			locked[userName] = seatName
		}
	}

	schedule, err := s.suggester.SuggestArrangement(ctx, ai.SuggestionInput{
		Employees:      roster.userNames,
		Seats:          roster.seatNames,
		PastOverrides:  overrides,
		FairnessMetric: s.cfg.FairnessMetric,
		LockedSeats:    locked,
	})
	if err != nil {
		s.logger.Warn("智能排座生成失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, ErrSuggestionUnavailable
	}
	if err := validateSchedule(schedule, roster); err != nil {
		s.logger.Warn("智能排座方案未通过校验", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	return &dto.SuggestionResponse{Date: date, Schedule: schedule}, nil
}

func (s *suggestionService) Apply(ctx context.Context, groupID string, req *dto.ApplyScheduleRequest) ([]model.Assignment, error) {
	if _, err := calendar.Parse(req.Date); err != nil {
		return nil, ErrInvalidDate
	}
	roster, err := s.loadRoster(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := validateSchedule(req.Schedule, roster); err != nil {
		return nil, err
	}

	assignments := make([]model.Assignment, 0, len(req.Schedule))
	for userName, seatName := range req.Schedule {
		userID := roster.userByName[userName]
		assignments = append(assignments, model.Assignment{
			AssignmentID: model.MakeAssignmentID(req.Date, userID),
			Date:         req.Date,
			UserID:       userID,
			SeatID:       roster.seatByName[seatName],
			GroupID:      groupID,
		})
	}

	if err := s.repo.Assignment.ReplaceDay(ctx, req.Date, groupID, assignments); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
		Type:    redis.EventAssignmentsChanged,
		GroupID: groupID,
		Date:    req.Date,
	})
	return s.repo.Assignment.ListByDate(ctx, req.Date, groupID)
}

// validateSchedule 校验方案是双射：每名成员恰好一次、每个座位恰好一次
func validateSchedule(schedule map[string]string, roster *groupRoster) error {
	if len(schedule) != len(roster.userNames) {
		return ErrInvalidSchedule
	}
	seenSeats := make(map[string]bool, len(schedule))
	for userName, seatName := range schedule {
		if _, ok := roster.userByName[userName]; !ok {
			return ErrInvalidSchedule
		}
		if _, ok := roster.seatByName[seatName]; !ok {
			return ErrInvalidSchedule
		}
		if seenSeats[seatName] {
			return ErrInvalidSchedule
		}
		seenSeats[seatName] = true
	}
	return nil
}
