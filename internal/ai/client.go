package ai

import "context"

// ── 外部 AI 协作方接口 ──
//
// 核心排座逻辑只依赖这两个接口；具体实现（Gemini）可替换，
// 未配置 API Key 时注入 nil，调用方降级处理。

// SuggestionInput 智能排座建议输入
type SuggestionInput struct {
	Employees      []string            // 待排座的成员姓名
	Seats          []string            // 可用座位名称
	PastOverrides  map[string][]string // 历史已通过的换座申请：姓名 → 曾申请的座位
	FairnessMetric string              // 公平性指标描述
	LockedSeats    map[string]string   // 锁定座位：姓名 → 座位名，不可变动
}

// SuggestionClient 智能排座建议生成方
type SuggestionClient interface {
	// SuggestArrangement 返回 姓名 → 座位名 的完整排座建议
	SuggestArrangement(ctx context.Context, input SuggestionInput) (map[string]string, error)
}

// AlertInput 审批结果提示语输入
type AlertInput struct {
	IsApproved        bool
	ApprovalsNeeded   int
	ApprovalsReceived int
	ProposedSeat      string
	CurrentSeat       string
}

// AlertClient 审批结果提示语生成方
type AlertClient interface {
	AlertMessage(ctx context.Context, input AlertInput) (string, error)
}
