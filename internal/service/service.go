package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MdKasif0/FairDesk-v2/config"
	"github.com/MdKasif0/FairDesk-v2/internal/ai"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

// EventPublisher 座位变更事件发布器，由 pkg/redis 实现。
// 允许为 nil：未配置 Redis 时服务静默降级。
type EventPublisher interface {
	PublishSeatingEvent(ctx context.Context, ev redis.SeatingEvent) error
}

// Service 聚合所有业务服务
type Service struct {
	Group         GroupService
	Assignment    AssignmentService
	ChangeRequest ChangeRequestService
	Suggestion    SuggestionService
	Export        ExportService
}

// NewService 创建服务聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	suggester ai.SuggestionClient,
	alerter ai.AlertClient,
	events EventPublisher,
	logger *zap.Logger,
) *Service {
	assignment := NewAssignmentService(repo, events, logger)
	return &Service{
		Group:         NewGroupService(repo, logger),
		Assignment:    assignment,
		ChangeRequest: NewChangeRequestService(cfg, repo, alerter, events, logger),
		Suggestion:    NewSuggestionService(cfg, repo, suggester, events, logger),
		Export:        NewExportService(repo, assignment, logger),
	}
}

// publishEvent 发布事件，失败只记录日志，不影响主流程
func publishEvent(ctx context.Context, events EventPublisher, logger *zap.Logger, ev redis.SeatingEvent) {
	if events == nil {
		return
	}
	if err := events.PublishSeatingEvent(ctx, ev); err != nil {
		logger.Warn("发布座位事件失败",
			zap.String("type", ev.Type),
			zap.String("group_id", ev.GroupID),
			zap.Error(err))
	}
}
