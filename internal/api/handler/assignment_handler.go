package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/service"
	"github.com/MdKasif0/FairDesk-v2/pkg/response"
)

// AssignmentHandler 排座模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// GetDay 获取某日排座（不存在则生成）
// GET /api/v1/assignments
func (h *AssignmentHandler) GetDay(c *gin.Context) {
	var req dto.DayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	assignments, err := h.assignmentSvc.GetOrCreate(c.Request.Context(), req.Date, req.GroupID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dto.NewAssignmentResponses(assignments)})
}

// GetRange 获取区间排座（缺失的工作日顺序补齐）
// GET /api/v1/assignments/range
func (h *AssignmentHandler) GetRange(c *gin.Context) {
	var req dto.RangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	assignments, err := h.assignmentSvc.GetRange(c.Request.Context(), req.From, req.To, req.GroupID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dto.NewAssignmentResponses(assignments)})
}

// ToggleLock 翻转排座锁定标记
// PUT /api/v1/assignments/:id/lock
func (h *AssignmentHandler) ToggleLock(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 20001, "排座ID不能为空")
		return
	}

	assignment, err := h.assignmentSvc.ToggleLock(c.Request.Context(), id)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, dto.NewAssignmentResponse(assignment))
}

// Randomize 随机重排某日未锁定的座位
// POST /api/v1/assignments/randomize
func (h *AssignmentHandler) Randomize(c *gin.Context) {
	var req dto.RandomizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	assignments, err := h.assignmentSvc.Randomize(c.Request.Context(), req.Date, req.GroupID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dto.NewAssignmentResponses(assignments)})
}

// GetMyAssignments 获取我的排座记录
// GET /api/v1/assignments/my
func (h *AssignmentHandler) GetMyAssignments(c *gin.Context) {
	var req dto.UserAssignmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentSvc.ListByUser(c.Request.Context(), req.GroupID, userID, req.From, req.To)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dto.NewAssignmentResponses(assignments)})
}

// GetHistory 分页获取历史排座
// GET /api/v1/assignments/history
func (h *AssignmentHandler) GetHistory(c *gin.Context) {
	var req dto.AssignmentHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	assignments, total, err := h.assignmentSvc.ListHistory(c.Request.Context(), req.GroupID, req.GetPage(), req.GetPageSize())
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OKPage(c, dto.NewAssignmentResponses(assignments), total, req.GetPage(), req.GetPageSize())
}

// handleAssignmentError 统一处理排座模块业务错误
func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 20002, "日期格式无效")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 20003, "日期范围无效")
	case errors.Is(err, service.ErrNonWorkingDay):
		response.BadRequest(c, 20004, "非工作日不能重排座位")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 20101, "小组不存在")
	case errors.Is(err, service.ErrGroupMisconfigured):
		response.Conflict(c, 20102, "小组成员与座位配置不一致")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 20103, "排座记录不存在")
	default:
		response.InternalError(c)
	}
}
