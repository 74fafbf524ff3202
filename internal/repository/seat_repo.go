package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/internal/model"
)

// SeatRepository 座位数据访问接口
type SeatRepository interface {
	GetByID(ctx context.Context, id string) (*model.Seat, error)
	ListByGroup(ctx context.Context, groupID string) ([]model.Seat, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Seat, error)
}

type seatRepo struct {
	db *gorm.DB
}

func NewSeatRepo(db *gorm.DB) SeatRepository {
	return &seatRepo{db: db}
}

func (r *seatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	var seat model.Seat
	err := r.db.WithContext(ctx).
		Where("seat_id = ?", id).
		First(&seat).Error
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepo) ListByGroup(ctx context.Context, groupID string) ([]model.Seat, error) {
	var seats []model.Seat
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("position ASC, created_at ASC").
		Find(&seats).Error
	return seats, err
}

func (r *seatRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var seats []model.Seat
	err := r.db.WithContext(ctx).
		Where("seat_id IN ?", ids).
		Find(&seats).Error
	return seats, err
}
