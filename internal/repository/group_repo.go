package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/internal/model"
)

// GroupRepository 小组数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	Update(ctx context.Context, group *model.Group) error
}

type groupRepo struct {
	db *gorm.DB
}

func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Where("group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepo) Update(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).
		Model(group).
		Where("group_id = ?", group.GroupID).
		Updates(map[string]interface{}{
			"name":       group.Name,
			"member_ids": group.MemberIDs,
			"seat_ids":   group.SeatIDs,
		}).Error
}
