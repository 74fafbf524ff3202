package model

// User 用户表 — 对应 users
// 身份不可变；账号与登录由外部系统管理
type User struct {
	UserID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	AvatarURL string `gorm:"type:varchar(500);not null;default:''"          json:"avatar_url"`
	GroupID   string `gorm:"type:uuid;not null"                             json:"group_id"`
	BaseModel

	// 关联
	Group *Group `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
