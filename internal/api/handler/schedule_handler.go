package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/service"
	"github.com/MdKasif0/FairDesk-v2/pkg/response"
)

// ScheduleHandler 智能排座模块 HTTP 处理器
type ScheduleHandler struct {
	suggestionSvc service.SuggestionService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(suggestionSvc service.SuggestionService) *ScheduleHandler {
	return &ScheduleHandler{suggestionSvc: suggestionSvc}
}

// Suggest 生成某日排座建议（只读不落库）
// POST /api/v1/schedules/suggest
func (h *ScheduleHandler) Suggest(c *gin.Context) {
	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22001, "参数校验失败")
		return
	}

	suggestion, err := h.suggestionSvc.Suggest(c.Request.Context(), req.Date, req.GroupID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, suggestion)
}

// Apply 应用排座方案（整日替换）
// POST /api/v1/groups/:id/schedules/apply
func (h *ScheduleHandler) Apply(c *gin.Context) {
	groupID := c.Param("id")
	if groupID == "" {
		response.BadRequest(c, 22001, "小组ID不能为空")
		return
	}

	var req dto.ApplyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22001, "参数校验失败")
		return
	}

	assignments, err := h.suggestionSvc.Apply(c.Request.Context(), groupID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dto.NewAssignmentResponses(assignments)})
}

// handleScheduleError 统一处理智能排座模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 22002, "日期格式无效")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 22101, "小组不存在")
	case errors.Is(err, service.ErrGroupMisconfigured):
		response.Conflict(c, 22102, "小组成员与座位配置不一致")
	case errors.Is(err, service.ErrSuggestionUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 22103, "智能排座服务不可用")
	case errors.Is(err, service.ErrInvalidSchedule):
		response.BadRequest(c, 22104, "排座方案无效：成员与座位必须一一对应")
	default:
		response.InternalError(c)
	}
}
