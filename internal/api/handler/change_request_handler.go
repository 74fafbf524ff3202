package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/service"
	pkgerrors "github.com/MdKasif0/FairDesk-v2/pkg/errors"
	"github.com/MdKasif0/FairDesk-v2/pkg/response"
)

// ChangeRequestHandler 换座申请模块 HTTP 处理器
type ChangeRequestHandler struct {
	changeRequestSvc service.ChangeRequestService
}

// NewChangeRequestHandler 创建 ChangeRequestHandler
func NewChangeRequestHandler(changeRequestSvc service.ChangeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{changeRequestSvc: changeRequestSvc}
}

// Submit 发起换座申请
// POST /api/v1/change-requests
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	request, err := h.changeRequestSvc.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.Created(c, dto.NewChangeRequestResponse(request))
}

// Vote 对换座申请投票
// POST /api/v1/change-requests/:id/votes
func (h *ChangeRequestHandler) Vote(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 21001, "申请ID不能为空")
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.changeRequestSvc.Vote(c.Request.Context(), id, userID, req.Vote == "approve")
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	if result.AlertFailed {
		response.OKWithWarning(c, result, "提示语生成失败，已使用默认文案")
		return
	}
	response.OK(c, result)
}

// GetByID 获取单个申请
// GET /api/v1/change-requests/:id
func (h *ChangeRequestHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 21001, "申请ID不能为空")
		return
	}

	request, err := h.changeRequestSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, dto.NewChangeRequestResponse(request))
}

// ListPending 获取待审批申请
// GET /api/v1/change-requests/pending
func (h *ChangeRequestHandler) ListPending(c *gin.Context) {
	groupID := c.Query("group_id")
	if groupID == "" {
		response.BadRequest(c, 21001, "group_id不能为空")
		return
	}

	requests, err := h.changeRequestSvc.ListPending(c.Request.Context(), groupID)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dto.NewChangeRequestResponses(requests)})
}

// GetHistory 分页获取申请历史
// GET /api/v1/change-requests/history
func (h *ChangeRequestHandler) GetHistory(c *gin.Context) {
	var req dto.ChangeRequestHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	requests, total, err := h.changeRequestSvc.ListHistory(c.Request.Context(), req.GroupID, req.GetPage(), req.GetPageSize())
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OKPage(c, dto.NewChangeRequestResponses(requests), total, req.GetPage(), req.GetPageSize())
}

// handleChangeRequestError 统一处理换座申请模块业务错误
func (h *ChangeRequestHandler) handleChangeRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 21002, "日期格式无效")
	case errors.Is(err, service.ErrChangeRequestNotFound):
		response.NotFound(c, 21101, "换座申请不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 21102, "当日无排座记录，无法发起换座")
	case errors.Is(err, service.ErrSwapTargetUnassigned):
		response.BadRequest(c, 21103, "目标座位当日无人使用")
	case errors.Is(err, service.ErrSwapWithSelf):
		response.BadRequest(c, 21104, "不能申请换到自己的座位")
	case errors.Is(err, service.ErrAlreadyVoted):
		response.Conflict(c, 21105, "已投过票，不能重复投票")
	case errors.Is(err, service.ErrIneligibleVoter):
		response.Forbidden(c, 21106, "无投票资格")
	case errors.Is(err, service.ErrRequestClosed):
		response.Conflict(c, 21107, "申请已结束，不能再投票")
	case errors.Is(err, service.ErrSettlementFailed):
		response.Conflict(c, 21108, "换座结算失败，申请保持待审批状态")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 21109, "小组不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 21110, "申请已被其他投票更新，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
