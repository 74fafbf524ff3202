package model

import "fmt"

// Assignment 排座记录表 — 对应 assignments
// 核心事实：某日某组内一名用户占用一个座位
// 主键由 date + user_id 派生，同日同人天然幂等；
// 同日同组内 user_id 与 seat_id 各自唯一（双射约束，见迁移脚本）
type Assignment struct {
	AssignmentID string `gorm:"type:varchar(64);primaryKey"        json:"assignment_id"`
	Date         string `gorm:"type:varchar(10);not null"          json:"date"` // yyyy-mm-dd
	UserID       string `gorm:"type:uuid;not null"                 json:"user_id"`
	SeatID       string `gorm:"type:uuid;not null"                 json:"seat_id"`
	GroupID      string `gorm:"type:uuid;not null"                 json:"group_id"`
	IsLocked     bool   `gorm:"not null;default:false"             json:"is_locked"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Seat *Seat `gorm:"foreignKey:SeatID;references:SeatID" json:"seat,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// MakeAssignmentID 生成派生主键：<date>-<userID>
func MakeAssignmentID(date, userID string) string {
	return fmt.Sprintf("%s-%s", date, userID)
}
