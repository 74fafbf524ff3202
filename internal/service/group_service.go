package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/model"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
)

// GroupService 小组服务接口
type GroupService interface {
	// GetDetail 查询小组详情，成员与座位按配置顺序展开
	GetDetail(ctx context.Context, groupID string) (*dto.GroupDetailResponse, error)
	// List 查询所有小组
	List(ctx context.Context) ([]model.Group, error)
	// UpdateRoster 更新小组成员与座位顺序
	UpdateRoster(ctx context.Context, groupID string, req *dto.UpdateGroupRosterRequest) (*model.Group, error)
}

type groupService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGroupService 创建小组服务实例
func NewGroupService(repo *repository.Repository, logger *zap.Logger) GroupService {
	return &groupService{repo: repo, logger: logger}
}

func (s *groupService) GetDetail(ctx context.Context, groupID string) (*dto.GroupDetailResponse, error) {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	users, err := s.repo.User.ListByIDs(ctx, group.MemberIDs)
	if err != nil {
		return nil, err
	}
	seats, err := s.repo.Seat.ListByIDs(ctx, group.SeatIDs)
	if err != nil {
		return nil, err
	}

	userByID := make(map[string]*model.User, len(users))
	for i := range users {
		userByID[users[i].UserID] = &users[i]
	}
	seatByID := make(map[string]*model.Seat, len(seats))
	for i := range seats {
		seatByID[seats[i].SeatID] = &seats[i]
	}

	resp := &dto.GroupDetailResponse{
		GroupID: group.GroupID,
		Name:    group.Name,
	}
	for _, id := range group.MemberIDs {
		if u, ok := userByID[id]; ok {
			resp.Members = append(resp.Members, dto.UserBrief{
				UserID:    u.UserID,
				Name:      u.Name,
				AvatarURL: u.AvatarURL,
			})
		}
	}
	for _, id := range group.SeatIDs {
		if seat, ok := seatByID[id]; ok {
			resp.Seats = append(resp.Seats, dto.SeatBrief{
				SeatID:   seat.SeatID,
				Name:     seat.Name,
				Position: seat.Position,
			})
		}
	}
	return resp, nil
}

func (s *groupService) List(ctx context.Context) ([]model.Group, error) {
	return s.repo.Group.List(ctx)
}

func (s *groupService) UpdateRoster(ctx context.Context, groupID string, req *dto.UpdateGroupRosterRequest) (*model.Group, error) {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(req.MemberIDs) != len(req.SeatIDs) || len(req.MemberIDs) == 0 {
		return nil, ErrGroupMisconfigured
	}
	if req.Name != "" {
		group.Name = req.Name
	}
	group.MemberIDs = model.StringArray(req.MemberIDs)
	group.SeatIDs = model.StringArray(req.SeatIDs)

	if err := s.repo.Group.Update(ctx, group); err != nil {
		return nil, err
	}
	s.logger.Info("小组配置已更新",
		zap.String("group_id", groupID),
		zap.Int("members", len(group.MemberIDs)))
	return group, nil
}
