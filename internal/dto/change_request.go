package dto

import "github.com/MdKasif0/FairDesk-v2/internal/model"

// ── 换座申请模块 DTO ──

// SubmitChangeRequestRequest 发起换座申请请求
type SubmitChangeRequestRequest struct {
	Date            string `json:"date"              binding:"required,datetime=2006-01-02"`
	GroupID         string `json:"group_id"          binding:"required,uuid"`
	RequestedSeatID string `json:"requested_seat_id" binding:"required,uuid"`
}

// VoteRequest 投票请求
type VoteRequest struct {
	Vote string `json:"vote" binding:"required,oneof=approve reject"`
}

// ChangeRequestHistoryRequest 申请历史查询参数
type ChangeRequestHistoryRequest struct {
	GroupID string `form:"group_id" binding:"required,uuid"`
	PaginationRequest
}

// ── 响应 ──

// ChangeRequestResponse 换座申请响应
type ChangeRequestResponse struct {
	ChangeRequestID   string   `json:"change_request_id"`
	Date              string   `json:"date"`
	GroupID           string   `json:"group_id"`
	ProposingUserID   string   `json:"proposing_user_id"`
	ProposingUserName string   `json:"proposing_user_name,omitempty"`
	CounterpartUserID string   `json:"counterpart_user_id"`
	CounterpartName   string   `json:"counterpart_name,omitempty"`
	OriginalSeatID    string   `json:"original_seat_id"`
	OriginalSeatName  string   `json:"original_seat_name,omitempty"`
	RequestedSeatID   string   `json:"requested_seat_id"`
	RequestedSeatName string   `json:"requested_seat_name,omitempty"`
	Status            string   `json:"status"`
	Approvals         []string `json:"approvals"`
	Rejections        []string `json:"rejections"`
	CreatedAt         string   `json:"created_at"`
}

// VoteResult 投票结果
type VoteResult struct {
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	Approvals    int    `json:"approvals"`
	Rejections   int    `json:"rejections"`
	AlertMessage string `json:"alert_message,omitempty"` // 终态才有
	AlertFailed  bool   `json:"-"`                       // 提示语生成失败，走 warning 字段
}

// NewChangeRequestResponse 由模型构造响应
func NewChangeRequestResponse(r *model.ChangeRequest) ChangeRequestResponse {
	resp := ChangeRequestResponse{
		ChangeRequestID:   r.ChangeRequestID,
		Date:              r.Date,
		GroupID:           r.GroupID,
		ProposingUserID:   r.ProposingUserID,
		CounterpartUserID: r.CounterpartUserID,
		OriginalSeatID:    r.OriginalSeatID,
		RequestedSeatID:   r.RequestedSeatID,
		Status:            r.Status,
		Approvals:         r.Approvals,
		Rejections:        r.Rejections,
		CreatedAt:         r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if resp.Approvals == nil {
		resp.Approvals = []string{}
	}
	if resp.Rejections == nil {
		resp.Rejections = []string{}
	}
	if r.ProposingUser != nil {
		resp.ProposingUserName = r.ProposingUser.Name
	}
	if r.CounterpartUser != nil {
		resp.CounterpartName = r.CounterpartUser.Name
	}
	if r.OriginalSeat != nil {
		resp.OriginalSeatName = r.OriginalSeat.Name
	}
	if r.RequestedSeat != nil {
		resp.RequestedSeatName = r.RequestedSeat.Name
	}
	return resp
}

// NewChangeRequestResponses 批量构造响应
func NewChangeRequestResponses(requests []model.ChangeRequest) []ChangeRequestResponse {
	out := make([]ChangeRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, NewChangeRequestResponse(&requests[i]))
	}
	return out
}
