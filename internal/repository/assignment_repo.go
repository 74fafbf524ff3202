package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MdKasif0/FairDesk-v2/internal/model"
)

// AssignmentRepository 排座记录数据访问接口
//
// 原子性约定（见迁移脚本的双射唯一索引）：
//   - ReplaceDay 整日替换在单事务内完成，并发读不可见中间态
//   - Swap 两条记录的座位交换在单事务内完成，行级锁防止并发互换
type AssignmentRepository interface {
	ListByDate(ctx context.Context, date, groupID string) ([]model.Assignment, error)
	// LastDateBefore 返回严格早于 before 的最近有排座记录的日期
	// 无记录时返回 gorm.ErrRecordNotFound
	LastDateBefore(ctx context.Context, groupID, before string) (string, error)
	// Upsert 幂等写入：按派生主键 create-or-replace
	Upsert(ctx context.Context, assignments []model.Assignment) error
	// ReplaceDay 原子替换某日某组的全部排座记录
	ReplaceDay(ctx context.Context, date, groupID string, assignments []model.Assignment) error
	// Swap 原子交换两条排座记录的座位
	Swap(ctx context.Context, idA, idB string) error
	// ToggleLock 翻转单条记录的锁定标记
	ToggleLock(ctx context.Context, id string) (*model.Assignment, error)
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListRange(ctx context.Context, groupID, from, to string) ([]model.Assignment, error)
	ListByUser(ctx context.Context, groupID, userID, from, to string) ([]model.Assignment, error)
	ListHistory(ctx context.Context, groupID string, offset, limit int) ([]model.Assignment, int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) ListByDate(ctx context.Context, date, groupID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Seat").
		Where("date = ? AND group_id = ?", date, groupID).
		Order("seat_id ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) LastDateBefore(ctx context.Context, groupID, before string) (string, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Select("date").
		Where("group_id = ? AND date < ?", groupID, before).
		Order("date DESC").
		First(&assignment).Error
	if err != nil {
		return "", err
	}
	return assignment.Date, nil
}

func (r *assignmentRepo) Upsert(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"seat_id", "is_locked", "updated_at"}),
		}).
		Create(&assignments).Error
}

func (r *assignmentRepo) ReplaceDay(ctx context.Context, date, groupID string, assignments []model.Assignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("date = ? AND group_id = ?", date, groupID).
			Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		return tx.Create(&assignments).Error
	})
}

func (r *assignmentRepo) Swap(ctx context.Context, idA, idB string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a, b model.Assignment

		// 固定加锁顺序，避免并发互换死锁
		first, second := idA, idB
		if second < first {
			first, second = second, first
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", first).
			First(&a).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", second).
			First(&b).Error; err != nil {
			return err
		}

		// (date, group_id, seat_id) 唯一约束为 DEFERRABLE，
		// 事务提交时才校验，中间态的座位重复不会报错
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
}

func (r *assignmentRepo) ToggleLock(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ?", id).
			First(&assignment).Error; err != nil {
			return err
		}
		assignment.IsLocked = !assignment.IsLocked
		return tx.Model(&model.Assignment{}).
			Where("assignment_id = ?", id).
			Update("is_locked", assignment.IsLocked).Error
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Seat").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) ListRange(ctx context.Context, groupID, from, to string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Seat").
		Where("group_id = ? AND date >= ? AND date <= ?", groupID, from, to).
		Order("date ASC, seat_id ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListByUser(ctx context.Context, groupID, userID, from, to string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Seat").
		Where("group_id = ? AND user_id = ? AND date >= ? AND date <= ?", groupID, userID, from, to).
		Order("date ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListHistory(ctx context.Context, groupID string, offset, limit int) ([]model.Assignment, int64, error) {
	var assignments []model.Assignment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("group_id = ?", groupID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").Preload("Seat").
		Offset(offset).Limit(limit).
		Order("date DESC, seat_id ASC").
		Find(&assignments).Error
	return assignments, total, err
}
