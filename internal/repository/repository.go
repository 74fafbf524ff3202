package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Group         GroupRepository
	User          UserRepository
	Seat          SeatRepository
	Assignment    AssignmentRepository
	ChangeRequest ChangeRequestRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Group:         NewGroupRepo(db),
		User:          NewUserRepo(db),
		Seat:          NewSeatRepo(db),
		Assignment:    NewAssignmentRepo(db),
		ChangeRequest: NewChangeRequestRepo(db),
	}
}
