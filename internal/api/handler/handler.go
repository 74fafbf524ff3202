package handler

import "github.com/MdKasif0/FairDesk-v2/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Group         *GroupHandler
	Assignment    *AssignmentHandler
	ChangeRequest *ChangeRequestHandler
	Schedule      *ScheduleHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Group:         NewGroupHandler(svc.Group),
		Assignment:    NewAssignmentHandler(svc.Assignment),
		ChangeRequest: NewChangeRequestHandler(svc.ChangeRequest),
		Schedule:      NewScheduleHandler(svc.Suggestion),
		Export:        NewExportHandler(svc.Export),
	}
}
