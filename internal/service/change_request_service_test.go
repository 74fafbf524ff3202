package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/MdKasif0/FairDesk-v2/config"
	"github.com/MdKasif0/FairDesk-v2/internal/dto"
	"github.com/MdKasif0/FairDesk-v2/internal/model"
)

// ── 测试辅助 ──

// seedLargeGroup 种子数据：5人小组，合格投票人=3，法定赞成数=2
func seedLargeGroup(repos *testRepos) {
	members := model.StringArray{"u-1", "u-2", "u-3", "u-4", "u-5"}
	seats := model.StringArray{"s-1", "s-2", "s-3", "s-4", "s-5"}
	repos.group.groups["grp-1"] = &model.Group{
		GroupID:   "grp-1",
		Name:      "研发一组",
		MemberIDs: members,
		SeatIDs:   seats,
	}
	names := []string{"张三", "李四", "王五", "赵六", "孙七"}
	seatNames := []string{"靠窗", "中间", "靠门", "角落", "过道"}
	for i, id := range members {
		repos.user.users[id] = &model.User{UserID: id, Name: names[i], GroupID: "grp-1"}
	}
	for i, id := range seats {
		repos.seat.seats[id] = &model.Seat{SeatID: id, Name: seatNames[i], GroupID: "grp-1", Position: i}
	}
}

// seedDayAssignments 为某日按配置顺序落一组排座记录
func seedDayAssignments(repos *testRepos, date string) {
	group := repos.group.groups["grp-1"]
	for i, userID := range group.MemberIDs {
		id := model.MakeAssignmentID(date, userID)
		repos.assignment.assignments[id] = &model.Assignment{
			AssignmentID: id,
			Date:         date,
			UserID:       userID,
			SeatID:       group.SeatIDs[i],
			GroupID:      "grp-1",
		}
	}
}

func setupTestChangeRequestService(alerter *mockAlertClient) (ChangeRequestService, *testRepos, *mockEventPublisher) {
	repos := newTestRepos()
	seedLargeGroup(repos)
	seedDayAssignments(repos, "2025-01-06")
	events := &mockEventPublisher{}
	cfg := &config.Config{Rotation: config.RotationConfig{ApprovalsNeeded: 2}}
	var svc ChangeRequestService
	if alerter != nil {
		svc = NewChangeRequestService(cfg, repos.toRepository(), alerter, events, zap.NewNop())
	} else {
		svc = NewChangeRequestService(cfg, repos.toRepository(), nil, events, zap.NewNop())
	}
	return svc, repos, events
}

func submitSwap(t *testing.T, svc ChangeRequestService) *model.ChangeRequest {
	t.Helper()
	request, err := svc.Submit(context.Background(), "u-1", &dto.SubmitChangeRequestRequest{
		Date:            "2025-01-06",
		GroupID:         "grp-1",
		RequestedSeatID: "s-2",
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	return request
}

// ════════════════════════════════════════════════════════════
// Submit 测试
// ════════════════════════════════════════════════════════════

func TestChangeRequestService_Submit_Success(t *testing.T) {
	svc, _, events := setupTestChangeRequestService(nil)

	request := submitSwap(t, svc)
	if request.Status != model.StatusPending {
		t.Errorf("新申请应为 pending，实际=%s", request.Status)
	}
	if request.CounterpartUserID != "u-2" {
		t.Errorf("被换人应为 u-2，实际=%s", request.CounterpartUserID)
	}
	if request.OriginalSeatID != "s-1" {
		t.Errorf("原座位应为 s-1，实际=%s", request.OriginalSeatID)
	}
	if len(events.events) != 1 {
		t.Errorf("期望发布1个事件，实际=%d", len(events.events))
	}
}

func TestChangeRequestService_Submit_TargetUnassigned(t *testing.T) {
	svc, _, _ := setupTestChangeRequestService(nil)

	_, err := svc.Submit(context.Background(), "u-1", &dto.SubmitChangeRequestRequest{
		Date:            "2025-01-06",
		GroupID:         "grp-1",
		RequestedSeatID: "s-9",
	})
	if !errors.Is(err, ErrSwapTargetUnassigned) {
		t.Errorf("期望 ErrSwapTargetUnassigned，实际: %v", err)
	}
}

func TestChangeRequestService_Submit_OwnSeat(t *testing.T) {
	svc, _, _ := setupTestChangeRequestService(nil)

	_, err := svc.Submit(context.Background(), "u-1", &dto.SubmitChangeRequestRequest{
		Date:            "2025-01-06",
		GroupID:         "grp-1",
		RequestedSeatID: "s-1",
	})
	if !errors.Is(err, ErrSwapWithSelf) {
		t.Errorf("期望 ErrSwapWithSelf，实际: %v", err)
	}
}

func TestChangeRequestService_Submit_ProposerUnassigned(t *testing.T) {
	svc, _, _ := setupTestChangeRequestService(nil)

	_, err := svc.Submit(context.Background(), "u-9", &dto.SubmitChangeRequestRequest{
		Date:            "2025-01-06",
		GroupID:         "grp-1",
		RequestedSeatID: "s-2",
	})
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("期望 ErrAssignmentNotFound，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Vote 测试
// ════════════════════════════════════════════════════════════

func TestChangeRequestService_Vote_ApprovalQuorumSwapsSeats(t *testing.T) {
	alerter := &mockAlertClient{message: "恭喜，换座成功！"}
	svc, repos, _ := setupTestChangeRequestService(alerter)
	request := submitSwap(t, svc)

	// 第1票：未达法定数，保持 pending，座位不动
	result, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", true)
	if err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	if result.Status != model.StatusPending {
		t.Errorf("1票后应仍为 pending，实际=%s", result.Status)
	}
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-1")].SeatID; got != "s-1" {
		t.Errorf("未达法定数不应换座，实际=%s", got)
	}
	if alerter.calls != 0 {
		t.Errorf("未到终态不应生成提示语，调用次数=%d", alerter.calls)
	}

	// 第2票：达到法定数，通过并互换座位
	result, err = svc.Vote(context.Background(), request.ChangeRequestID, "u-4", true)
	if err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	if result.Status != model.StatusApproved {
		t.Errorf("2票后应为 approved，实际=%s", result.Status)
	}
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-1")].SeatID; got != "s-2" {
		t.Errorf("提议人应换到 s-2，实际=%s", got)
	}
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-2")].SeatID; got != "s-1" {
		t.Errorf("被换人应换到 s-1，实际=%s", got)
	}
	if result.AlertMessage != "恭喜，换座成功！" {
		t.Errorf("应返回 AI 提示语，实际=%q", result.AlertMessage)
	}
	if alerter.calls != 1 {
		t.Errorf("提示语应只生成一次，调用次数=%d", alerter.calls)
	}
	if !alerter.lastIn.IsApproved {
		t.Error("提示语输入应标记为已通过")
	}
}

func TestChangeRequestService_Vote_Duplicate(t *testing.T) {
	svc, repos, _ := setupTestChangeRequestService(nil)
	request := submitSwap(t, svc)

	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", true); err != nil {
		t.Fatalf("首次投票应成功: %v", err)
	}
	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", false); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("期望 ErrAlreadyVoted，实际: %v", err)
	}
	// 状态不应被改动
	stored := repos.changeRequest.requests[request.ChangeRequestID]
	if len(stored.Approvals) != 1 || len(stored.Rejections) != 0 {
		t.Errorf("重复投票不应改变票数: approvals=%d rejections=%d", len(stored.Approvals), len(stored.Rejections))
	}
}

func TestChangeRequestService_Vote_Ineligible(t *testing.T) {
	svc, _, _ := setupTestChangeRequestService(nil)
	request := submitSwap(t, svc)

	// 提议人、被换人、非组内成员都无资格
	for _, voter := range []string{"u-1", "u-2", "u-9"} {
		if _, err := svc.Vote(context.Background(), request.ChangeRequestID, voter, true); !errors.Is(err, ErrIneligibleVoter) {
			t.Errorf("%s 投票期望 ErrIneligibleVoter，实际: %v", voter, err)
		}
	}
}

func TestChangeRequestService_Vote_ClosedRequest(t *testing.T) {
	svc, _, _ := setupTestChangeRequestService(nil)
	request := submitSwap(t, svc)

	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", true); err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-4", true); err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	// 已通过后第三人再投
	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-5", true); !errors.Is(err, ErrRequestClosed) {
		t.Errorf("期望 ErrRequestClosed，实际: %v", err)
	}
}

func TestChangeRequestService_Vote_RejectionThreshold(t *testing.T) {
	svc, repos, _ := setupTestChangeRequestService(nil)
	request := submitSwap(t, svc)

	// 合格投票人=3，法定赞成数=2，反对票 > 3-2=1 即否决
	result, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", false)
	if err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	if result.Status != model.StatusPending {
		t.Errorf("1张反对票应仍为 pending，实际=%s", result.Status)
	}
	result, err = svc.Vote(context.Background(), request.ChangeRequestID, "u-4", false)
	if err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	if result.Status != model.StatusRejected {
		t.Errorf("2张反对票应为 rejected，实际=%s", result.Status)
	}
	// 否决不换座
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-1")].SeatID; got != "s-1" {
		t.Errorf("否决后座位不应变动，实际=%s", got)
	}
}

func TestChangeRequestService_Vote_SettlementFailureKeepsPending(t *testing.T) {
	svc, repos, _ := setupTestChangeRequestService(nil)
	request := submitSwap(t, svc)

	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", true); err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	// 结算前当日记录被整体替换，被换人记录消失
	delete(repos.assignment.assignments, model.MakeAssignmentID("2025-01-06", "u-2"))

	_, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-4", true)
	if !errors.Is(err, ErrSettlementFailed) {
		t.Fatalf("期望 ErrSettlementFailed，实际: %v", err)
	}
	// 申请退回待审批，本次投票保留
	stored := repos.changeRequest.requests[request.ChangeRequestID]
	if stored.Status != model.StatusPending {
		t.Errorf("结算失败后应保持 pending，实际=%s", stored.Status)
	}
	if len(stored.Approvals) != 2 {
		t.Errorf("结算失败后投票应保留，approvals=%d", len(stored.Approvals))
	}
	// 提议人座位未变
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-1")].SeatID; got != "s-1" {
		t.Errorf("结算失败不应产生半次换座，实际=%s", got)
	}

	// 版本号未因失败事务错位：记录恢复后再投一票应正常通过并完成结算
	repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-2")] = &model.Assignment{
		AssignmentID: model.MakeAssignmentID("2025-01-06", "u-2"),
		Date:         "2025-01-06",
		UserID:       "u-2",
		SeatID:       "s-2",
		GroupID:      "grp-1",
	}
	result, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-5", true)
	if err != nil {
		t.Fatalf("结算失败后的再次投票应成功: %v", err)
	}
	if result.Status != model.StatusApproved {
		t.Errorf("恢复后应为 approved，实际=%s", result.Status)
	}
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-1")].SeatID; got != "s-2" {
		t.Errorf("恢复后换座应完成，实际=%s", got)
	}
}

func TestChangeRequestService_Vote_AlertFailureIsNonFatal(t *testing.T) {
	alerter := &mockAlertClient{err: errMockAI}
	svc, repos, _ := setupTestChangeRequestService(alerter)
	request := submitSwap(t, svc)

	if _, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-3", true); err != nil {
		t.Fatalf("投票应成功: %v", err)
	}
	result, err := svc.Vote(context.Background(), request.ChangeRequestID, "u-4", true)
	if err != nil {
		t.Fatalf("提示语失败不应影响投票: %v", err)
	}
	if result.Status != model.StatusApproved {
		t.Errorf("应为 approved，实际=%s", result.Status)
	}
	if !result.AlertFailed {
		t.Error("应标记提示语生成失败")
	}
	if result.AlertMessage == "" {
		t.Error("失败时应返回兜底文案")
	}
	// 换座已落库
	if got := repos.assignment.assignments[model.MakeAssignmentID("2025-01-06", "u-1")].SeatID; got != "s-2" {
		t.Errorf("换座应已完成，实际=%s", got)
	}
}

func TestChangeRequestService_Vote_RequestNotFound(t *testing.T) {
	svc, _, _ := setupTestChangeRequestService(nil)

	if _, err := svc.Vote(context.Background(), "nonexistent", "u-3", true); !errors.Is(err, ErrChangeRequestNotFound) {
		t.Errorf("期望 ErrChangeRequestNotFound，实际: %v", err)
	}
}
