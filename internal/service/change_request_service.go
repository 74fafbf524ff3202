package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MdKasif0/FairDesk-v2/config"
	"github.com/MdKasif0/FairDesk-v2/internal/ai"
	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/model"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
	"github.com/MdKasif0/FairDesk-v2/pkg/calendar"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

// 换座申请服务错误定义
var (
	ErrChangeRequestNotFound = errors.New("换座申请不存在")
	ErrSwapTargetUnassigned  = errors.New("目标座位当日无人使用，无法发起换座")
	ErrSwapWithSelf          = errors.New("不能申请换到自己的座位")
	ErrAlreadyVoted          = errors.New("已投过票，不能重复投票")
	ErrIneligibleVoter       = errors.New("无投票资格")
	ErrRequestClosed         = errors.New("申请已结束，不能再投票")
	ErrSettlementFailed      = errors.New("换座结算失败，申请保持待审批状态")
)

// ChangeRequestService 换座申请服务接口
//
// 申请走同伴审批：提议人与被换人是利益相关方，不参与投票；
// 赞成票达到法定数即通过并原子执行座位互换，反对票超过
// "合格票数 - 法定数"即否决。
type ChangeRequestService interface {
	// Submit 发起换座申请
	Submit(ctx context.Context, proposerID string, req *dto.SubmitChangeRequestRequest) (*model.ChangeRequest, error)
	// Vote 投票，终态到达时执行结算并生成提示语
	// 并发投票按乐观锁串行化，落败方收到 ErrOptimisticLock，调用方需重试
	Vote(ctx context.Context, requestID, voterID string, approve bool) (*dto.VoteResult, error)
	// GetByID 查询单个申请
	GetByID(ctx context.Context, requestID string) (*model.ChangeRequest, error)
	// ListPending 查询待审批申请
	ListPending(ctx context.Context, groupID string) ([]model.ChangeRequest, error)
	// ListHistory 分页查询申请历史
	ListHistory(ctx context.Context, groupID string, page, pageSize int) ([]model.ChangeRequest, int64, error)
}

type changeRequestService struct {
	cfg     *config.RotationConfig
	repo    *repository.Repository
	alerter ai.AlertClient
	events  EventPublisher
	logger  *zap.Logger
}

// NewChangeRequestService 创建换座申请服务实例
func NewChangeRequestService(cfg *config.Config, repo *repository.Repository, alerter ai.AlertClient, events EventPublisher, logger *zap.Logger) ChangeRequestService {
	return &changeRequestService{
		cfg:     &cfg.Rotation,
		repo:    repo,
		alerter: alerter,
		events:  events,
		logger:  logger,
	}
}

func (s *changeRequestService) Submit(ctx context.Context, proposerID string, req *dto.SubmitChangeRequestRequest) (*model.ChangeRequest, error) {
	if _, err := calendar.Parse(req.Date); err != nil {
		return nil, ErrInvalidDate
	}

	// 以当日已落库的排座为准判定双方座位；当日未排座时报记录不存在
	assignments, err := s.repo.Assignment.ListByDate(ctx, req.Date, req.GroupID)
	if err != nil {
		return nil, err
	}

	var proposer, counterpart *model.Assignment
	for i := range assignments {
		a := &assignments[i]
		if a.UserID == proposerID {
			proposer = a
		}
		if a.SeatID == req.RequestedSeatID {
			counterpart = a
		}
	}
	if proposer == nil {
		return nil, ErrAssignmentNotFound
	}
	if counterpart == nil {
		return nil, ErrSwapTargetUnassigned
	}
	if counterpart.UserID == proposerID {
		return nil, ErrSwapWithSelf
	}

	request := &model.ChangeRequest{
		Date:              req.Date,
		ProposingUserID:   proposerID,
		CounterpartUserID: counterpart.UserID,
		OriginalSeatID:    proposer.SeatID,
		RequestedSeatID:   req.RequestedSeatID,
		Status:            model.StatusPending,
		Approvals:         model.StringArray{},
		Rejections:        model.StringArray{},
		GroupID:           req.GroupID,
	}
	if err := s.repo.ChangeRequest.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("换座申请已创建",
		zap.String("request_id", request.ChangeRequestID),
		zap.String("proposer", proposerID),
		zap.String("counterpart", counterpart.UserID))
	publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
		Type:      redis.EventChangeRequestUpdated,
		GroupID:   req.GroupID,
		Date:      req.Date,
		RequestID: request.ChangeRequestID,
	})
	return request, nil
}

func (s *changeRequestService) Vote(ctx context.Context, requestID, voterID string, approve bool) (*dto.VoteResult, error) {
	request, err := s.repo.ChangeRequest.GetByID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChangeRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	// 重复投票优先于已结束：两个条件同时成立时报重复投票
	if request.HasVoted(voterID) {
		return nil, ErrAlreadyVoted
	}
	if request.IsTerminal() {
		return nil, ErrRequestClosed
	}
	if voterID == request.ProposingUserID || voterID == request.CounterpartUserID {
		return nil, ErrIneligibleVoter
	}

	group, err := s.repo.Group.GetByID(ctx, request.GroupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	if !group.MemberIDs.Contains(voterID) {
		return nil, ErrIneligibleVoter
	}

	if approve {
		request.Approvals = append(request.Approvals, voterID)
	} else {
		request.Rejections = append(request.Rejections, voterID)
	}

	eligible := len(group.MemberIDs) - 2
	needed := s.cfg.ApprovalsNeeded
	if needed > eligible {
		needed = eligible
	}
	if needed < 1 {
		needed = 1
	}

	switch {
	case len(request.Approvals) >= needed:
		request.Status = model.StatusApproved
	case len(request.Rejections) > eligible-needed:
		request.Status = model.StatusRejected
	}

	if request.Status == model.StatusApproved {
		if err := s.settle(ctx, request); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.ChangeRequest.Update(ctx, request); err != nil {
			return nil, err
		}
	}

	publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
		Type:      redis.EventChangeRequestUpdated,
		GroupID:   request.GroupID,
		Date:      request.Date,
		RequestID: request.ChangeRequestID,
	})

	result := &dto.VoteResult{
		RequestID:  request.ChangeRequestID,
		Status:     request.Status,
		Approvals:  len(request.Approvals),
		Rejections: len(request.Rejections),
	}
	if request.IsTerminal() {
		result.AlertMessage, result.AlertFailed = s.alertMessage(ctx, request, needed)
	}
	return result, nil
}

// settle 通过态结算：状态更新与两条排座记录的座位互换在同一事务内
// 排座记录缺失时（例如当日记录已被整体替换）申请退回待审批，
// 仅保留本次投票，返回 ErrSettlementFailed
func (s *changeRequestService) settle(ctx context.Context, request *model.ChangeRequest) error {
	idA := model.MakeAssignmentID(request.Date, request.ProposingUserID)
	idB := model.MakeAssignmentID(request.Date, request.CounterpartUserID)
	err := s.repo.ChangeRequest.UpdateWithSettlement(ctx, request, idA, idB)
	if err == nil {
		publishEvent(ctx, s.events, s.logger, redis.SeatingEvent{
			Type:    redis.EventAssignmentsChanged,
			GroupID: request.GroupID,
			Date:    request.Date,
		})
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("换座结算失败：当日排座记录缺失",
			zap.String("request_id", request.ChangeRequestID),
			zap.String("date", request.Date))
		request.Status = model.StatusPending
		if uerr := s.repo.ChangeRequest.Update(ctx, request); uerr != nil {
			return uerr
		}
		return ErrSettlementFailed
	}
	return err
}

// alertMessage 生成审批结果提示语；AI 不可用或失败时退回固定文案
func (s *changeRequestService) alertMessage(ctx context.Context, request *model.ChangeRequest, needed int) (string, bool) {
	fallback := "换座申请已否决。"
	if request.Status == model.StatusApproved {
		fallback = "换座申请已通过，座位已互换。"
	}
	if s.alerter == nil {
		return fallback, false
	}

	msg, err := s.alerter.AlertMessage(ctx, ai.AlertInput{
		IsApproved:        request.Status == model.StatusApproved,
		ApprovalsNeeded:   needed,
		ApprovalsReceived: len(request.Approvals),
		ProposedSeat:      s.seatName(ctx, request.RequestedSeatID),
		CurrentSeat:       s.seatName(ctx, request.OriginalSeatID),
	})
	if err != nil {
		s.logger.Warn("生成审批提示语失败", zap.String("request_id", request.ChangeRequestID), zap.Error(err))
		return fallback, true
	}
	return msg, false
}

func (s *changeRequestService) seatName(ctx context.Context, seatID string) string {
	seat, err := s.repo.Seat.GetByID(ctx, seatID)
	if err != nil {
		return "未知座位"
	}
	return seat.Name
}

func (s *changeRequestService) GetByID(ctx context.Context, requestID string) (*model.ChangeRequest, error) {
	request, err := s.repo.ChangeRequest.GetByID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChangeRequestNotFound
	}
	return request, err
}

func (s *changeRequestService) ListPending(ctx context.Context, groupID string) ([]model.ChangeRequest, error) {
	return s.repo.ChangeRequest.ListPending(ctx, groupID)
}

func (s *changeRequestService) ListHistory(ctx context.Context, groupID string, page, pageSize int) ([]model.ChangeRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.ChangeRequest.ListHistory(ctx, groupID, (page-1)*pageSize, pageSize)
}
