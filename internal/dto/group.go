package dto

// ── 小组模块 DTO ──

// UpdateGroupRosterRequest 更新小组成员/座位顺序请求
// MemberIDs 与 SeatIDs 等长，顺序即轮换环顺序
type UpdateGroupRosterRequest struct {
	Name      string   `json:"name"       binding:"omitempty,min=1,max=100"`
	MemberIDs []string `json:"member_ids" binding:"required,min=1,dive,uuid"`
	SeatIDs   []string `json:"seat_ids"   binding:"required,min=1,dive,uuid"`
}

// ── 响应 ──

// UserBrief 成员简要信息
type UserBrief struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SeatBrief 座位简要信息
type SeatBrief struct {
	SeatID   string `json:"seat_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// GroupDetailResponse 小组详情响应
type GroupDetailResponse struct {
	GroupID string      `json:"group_id"`
	Name    string      `json:"name"`
	Members []UserBrief `json:"members"`
	Seats   []SeatBrief `json:"seats"`
}
