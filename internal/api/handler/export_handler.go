package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MdKasif0/FairDesk-v2/internal/service"
	"github.com/MdKasif0/FairDesk-v2/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportMonth 导出某组某月排座表（xlsx）
// GET /api/v1/export/month?group_id=xxx&year=2025&month=1
func (h *ExportHandler) ExportMonth(c *gin.Context) {
	groupID := c.Query("group_id")
	if groupID == "" {
		response.BadRequest(c, 24001, "group_id 不能为空")
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, 24001, "year 无效")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(c, 24001, "month 无效")
		return
	}

	buf, filename, err := h.exportSvc.ExportMonth(c.Request.Context(), groupID, year, time.Month(month))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportMyCalendar 导出我的排座日历（ICS）
// GET /api/v1/export/calendar?group_id=xxx&from=2025-01-01&to=2025-01-31
func (h *ExportHandler) ExportMyCalendar(c *gin.Context) {
	groupID := c.Query("group_id")
	from := c.Query("from")
	to := c.Query("to")
	if groupID == "" || from == "" || to == "" {
		response.BadRequest(c, 24001, "group_id/from/to 不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	content, filename, err := h.exportSvc.ExportUserCalendar(c.Request.Context(), groupID, userID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(content))
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 24002, "日期格式无效")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 24101, "小组不存在")
	case errors.Is(err, service.ErrGroupMisconfigured):
		response.Conflict(c, 24102, "小组成员与座位配置不一致")
	default:
		response.InternalError(c)
	}
}
