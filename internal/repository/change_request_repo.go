package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MdKasif0/FairDesk-v2/internal/model"
	pkgerrors "github.com/MdKasif0/FairDesk-v2/pkg/errors"
)

// ChangeRequestRepository 换座申请数据访问接口
type ChangeRequestRepository interface {
	Create(ctx context.Context, req *model.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*model.ChangeRequest, error)
	// Update 乐观锁更新：version 不匹配时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, req *model.ChangeRequest) error
	// UpdateWithSettlement 在单事务内完成状态更新与两条排座记录的座位交换
	UpdateWithSettlement(ctx context.Context, req *model.ChangeRequest, assignmentIDA, assignmentIDB string) error
	ListPending(ctx context.Context, groupID string) ([]model.ChangeRequest, error)
	ListApproved(ctx context.Context, groupID string) ([]model.ChangeRequest, error)
	ListHistory(ctx context.Context, groupID string, offset, limit int) ([]model.ChangeRequest, int64, error)
}

type changeRequestRepo struct {
	db *gorm.DB
}

func NewChangeRequestRepo(db *gorm.DB) ChangeRequestRepository {
	return &changeRequestRepo{db: db}
}

func (r *changeRequestRepo) Create(ctx context.Context, req *model.ChangeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *changeRequestRepo) GetByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var req model.ChangeRequest
	err := r.db.WithContext(ctx).
		Preload("ProposingUser").
		Preload("CounterpartUser").
		Preload("OriginalSeat").
		Preload("RequestedSeat").
		Where("change_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *changeRequestRepo) Update(ctx context.Context, req *model.ChangeRequest) error {
	return r.updateTx(r.db.WithContext(ctx), req)
}

// updateTx 乐观锁更新的事务内实现
func (r *changeRequestRepo) updateTx(tx *gorm.DB, req *model.ChangeRequest) error {
	oldVersion := req.Version
	result := tx.
		Model(req).
		Where("change_request_id = ? AND version = ?", req.ChangeRequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"approvals":  req.Approvals,
			"rejections": req.Rejections,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}

func (r *changeRequestRepo) UpdateWithSettlement(ctx context.Context, req *model.ChangeRequest, assignmentIDA, assignmentIDB string) error {
	oldVersion := req.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先锁定并校验两条排座记录，再推进版本：
		// 记录缺失时事务在版本变更前失败，req 的内存状态与库内保持一致
		var a, b model.Assignment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", assignmentIDA).
			First(&a).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", assignmentIDB).
			First(&b).Error; err != nil {
			return err
		}

		if err := r.updateTx(tx, req); err != nil {
			return err
		}

		// 座位唯一约束为 DEFERRABLE，提交时校验
		seatA, seatB := a.SeatID, b.SeatID
		if err := tx.Model(&model.Assignment{}).
			Where("assignment_id = ?", a.AssignmentID).
			Update("seat_id", seatB).Error; err != nil {
			return err
		}
		return tx.Model(&model.Assignment{}).
			Where("assignment_id = ?", b.AssignmentID).
			Update("seat_id", seatA).Error
	})
	if err != nil {
		// 回滚后撤销 updateTx 对内存版本号的推进
		req.Version = oldVersion
	}
	return err
}

func (r *changeRequestRepo) ListPending(ctx context.Context, groupID string) ([]model.ChangeRequest, error) {
	var reqs []model.ChangeRequest
	err := r.db.WithContext(ctx).
		Preload("ProposingUser").
		Preload("CounterpartUser").
		Preload("OriginalSeat").
		Preload("RequestedSeat").
		Where("group_id = ? AND status = ?", groupID, model.StatusPending).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *changeRequestRepo) ListApproved(ctx context.Context, groupID string) ([]model.ChangeRequest, error) {
	var reqs []model.ChangeRequest
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, model.StatusApproved).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *changeRequestRepo) ListHistory(ctx context.Context, groupID string, offset, limit int) ([]model.ChangeRequest, int64, error) {
	var reqs []model.ChangeRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ChangeRequest{}).
		Where("group_id = ?", groupID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("ProposingUser").
		Preload("CounterpartUser").
		Preload("OriginalSeat").
		Preload("RequestedSeat").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, total, err
}
