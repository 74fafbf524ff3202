package model

// Seat 座位表 — 对应 seats
// Position 提供稳定展示顺序，轮换顺序以 Group.SeatIDs 为准
type Seat struct {
	SeatID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"seat_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	GroupID  string `gorm:"type:uuid;not null"                             json:"group_id"`
	Position int    `gorm:"type:smallint;not null;default:0"               json:"position"`
	BaseModel

	// 关联
	Group *Group `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
}

// TableName 指定表名
func (Seat) TableName() string { return "seats" }
