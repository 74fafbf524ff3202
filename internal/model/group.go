package model

// Group 小组表 — 对应 groups
// MemberIDs/SeatIDs 为有序列表，顺序即轮换基准序
// 成员与座位的增删由外部账号系统维护，本服务视为读多写少的输入
type Group struct {
	GroupID   string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	Name      string      `gorm:"type:varchar(100);not null"                     json:"name"`
	MemberIDs StringArray `gorm:"type:text[];not null;default:'{}'"              json:"member_ids"`
	SeatIDs   StringArray `gorm:"type:text[];not null;default:'{}'"              json:"seat_ids"`
	BaseModel
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }
