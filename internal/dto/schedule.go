package dto

// ── 智能排座模块 DTO ──

// SuggestRequest 排座建议请求
type SuggestRequest struct {
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
	GroupID string `json:"group_id" binding:"required,uuid"`
}

// ApplyScheduleRequest 应用排座方案请求
// Schedule 为 成员姓名 → 座位名称 的完整映射
type ApplyScheduleRequest struct {
	Date     string            `json:"date"     binding:"required,datetime=2006-01-02"`
	Schedule map[string]string `json:"schedule" binding:"required"`
}

// SuggestionResponse 排座建议响应
type SuggestionResponse struct {
	Date     string            `json:"date"`
	Schedule map[string]string `json:"schedule"`
}
