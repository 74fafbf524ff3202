package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/service"
	"github.com/MdKasif0/FairDesk-v2/pkg/response"
)

// GroupHandler 小组模块 HTTP 处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// List 获取所有小组
// GET /api/v1/groups
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupSvc.List(c.Request.Context())
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, gin.H{"list": groups})
}

// GetDetail 获取小组详情
// GET /api/v1/groups/:id
func (h *GroupHandler) GetDetail(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 23001, "小组ID不能为空")
		return
	}

	detail, err := h.groupSvc.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, detail)
}

// UpdateRoster 更新小组成员与座位顺序
// PUT /api/v1/groups/:id/roster
func (h *GroupHandler) UpdateRoster(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 23001, "小组ID不能为空")
		return
	}

	var req dto.UpdateGroupRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	group, err := h.groupSvc.UpdateRoster(c.Request.Context(), id, &req)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// handleGroupError 统一处理小组模块业务错误
func (h *GroupHandler) handleGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 23101, "小组不存在")
	case errors.Is(err, service.ErrGroupMisconfigured):
		response.BadRequest(c, 23102, "成员数与座位数必须一致且不为空")
	default:
		response.InternalError(c)
	}
}
