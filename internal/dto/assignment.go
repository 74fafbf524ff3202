package dto

import "github.com/MdKasif0/FairDesk-v2/internal/model"

// ── 排座模块 DTO ──

// DayRequest 单日排座查询参数
type DayRequest struct {
	Date    string `form:"date"     binding:"required,datetime=2006-01-02"`
	GroupID string `form:"group_id" binding:"required,uuid"`
}

// RangeRequest 区间排座查询参数
type RangeRequest struct {
	From    string `form:"from"     binding:"required,datetime=2006-01-02"`
	To      string `form:"to"       binding:"required,datetime=2006-01-02"`
	GroupID string `form:"group_id" binding:"required,uuid"`
}

// RandomizeRequest 随机重排请求
type RandomizeRequest struct {
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
	GroupID string `json:"group_id" binding:"required,uuid"`
}

// UserAssignmentsRequest 某用户排座查询参数
type UserAssignmentsRequest struct {
	GroupID string `form:"group_id" binding:"required,uuid"`
	From    string `form:"from"     binding:"required,datetime=2006-01-02"`
	To      string `form:"to"       binding:"required,datetime=2006-01-02"`
}

// AssignmentHistoryRequest 历史排座查询参数
type AssignmentHistoryRequest struct {
	GroupID string `form:"group_id" binding:"required,uuid"`
	PaginationRequest
}

// ── 响应 ──

// AssignmentResponse 排座记录响应
type AssignmentResponse struct {
	AssignmentID string `json:"assignment_id"`
	Date         string `json:"date"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name,omitempty"`
	SeatID       string `json:"seat_id"`
	SeatName     string `json:"seat_name,omitempty"`
	GroupID      string `json:"group_id"`
	IsLocked     bool   `json:"is_locked"`
}

// NewAssignmentResponse 由模型构造响应
func NewAssignmentResponse(a *model.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		AssignmentID: a.AssignmentID,
		Date:         a.Date,
		UserID:       a.UserID,
		SeatID:       a.SeatID,
		GroupID:      a.GroupID,
		IsLocked:     a.IsLocked,
	}
	if a.User != nil {
		resp.UserName = a.User.Name
	}
	if a.Seat != nil {
		resp.SeatName = a.Seat.Name
	}
	return resp
}

// NewAssignmentResponses 批量构造响应
func NewAssignmentResponses(assignments []model.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		out = append(out, NewAssignmentResponse(&assignments[i]))
	}
	return out
}
