package model

// 换座申请状态常量
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ChangeRequest 换座申请表 — 对应 change_requests
// 提议人与被换人是利益相关方，不参与投票；
// Approvals/Rejections 记录已投票的用户 ID，二者互斥（不可重复投票）
// Version 乐观锁用于串行化并发投票
type ChangeRequest struct {
	ChangeRequestID   string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_request_id"`
	Date              string      `gorm:"type:varchar(10);not null"                     json:"date"` // yyyy-mm-dd
	ProposingUserID   string      `gorm:"type:uuid;not null"                             json:"proposing_user_id"`
	CounterpartUserID string      `gorm:"type:uuid;not null"                             json:"counterpart_user_id"`
	OriginalSeatID    string      `gorm:"type:uuid;not null"                             json:"original_seat_id"`
	RequestedSeatID   string      `gorm:"type:uuid;not null"                             json:"requested_seat_id"`
	Status            string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	Approvals         StringArray `gorm:"type:text[];not null;default:'{}'"              json:"approvals"`
	Rejections        StringArray `gorm:"type:text[];not null;default:'{}'"              json:"rejections"`
	GroupID           string      `gorm:"type:uuid;not null"                             json:"group_id"`
	VersionedModel

	// 关联
	ProposingUser   *User `gorm:"foreignKey:ProposingUserID;references:UserID"   json:"proposing_user,omitempty"`
	CounterpartUser *User `gorm:"foreignKey:CounterpartUserID;references:UserID" json:"counterpart_user,omitempty"`
	OriginalSeat    *Seat `gorm:"foreignKey:OriginalSeatID;references:SeatID"    json:"original_seat,omitempty"`
	RequestedSeat   *Seat `gorm:"foreignKey:RequestedSeatID;references:SeatID"   json:"requested_seat,omitempty"`
}

// TableName 指定表名
func (ChangeRequest) TableName() string { return "change_requests" }

// IsTerminal 是否已处于终态（approved / rejected）
func (r *ChangeRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// HasVoted 判断用户是否已在任一投票集合中
func (r *ChangeRequest) HasVoted(userID string) bool {
	return r.Approvals.Contains(userID) || r.Rejections.Contains(userID)
}
