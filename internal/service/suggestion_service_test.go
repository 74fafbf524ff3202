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

func setupTestSuggestionService(client *mockSuggestionClient) (SuggestionService, *testRepos) {
	repos := newTestRepos()
	seedGroup(repos)
	cfg := &config.Config{AI: config.AIConfig{FairnessMetric: "equal time in preferred seats"}}
	var svc SuggestionService
	if client != nil {
		svc = NewSuggestionService(cfg, repos.toRepository(), client, &mockEventPublisher{}, zap.NewNop())
	} else {
		svc = NewSuggestionService(cfg, repos.toRepository(), nil, &mockEventPublisher{}, zap.NewNop())
	}
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// Suggest 测试
// ════════════════════════════════════════════════════════════

func TestSuggestionService_Suggest_Success(t *testing.T) {
	client := &mockSuggestionClient{schedule: map[string]string{
		"张三": "靠门", "李四": "靠窗", "王五": "中间",
	}}
	svc, repos := setupTestSuggestionService(client)

	// 锁定王五在中间的座位，作为硬约束传入
	repos.assignment.assignments["2025-01-06-u-3"] = &model.Assignment{
		AssignmentID: "2025-01-06-u-3", Date: "2025-01-06",
		UserID: "u-3", SeatID: "s-2", GroupID: "grp-1", IsLocked: true,
	}
	// 历史已通过的换座申请作为偏好
	repos.changeRequest.requests["cr-1"] = &model.ChangeRequest{
		ChangeRequestID: "cr-1", GroupID: "grp-1", Status: model.StatusApproved,
		ProposingUserID: "u-1", RequestedSeatID: "s-3",
	}

	resp, err := svc.Suggest(context.Background(), "2025-01-06", "grp-1")
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	if len(resp.Schedule) != 3 {
		t.Fatalf("期望3条建议，实际=%d", len(resp.Schedule))
	}
	if client.lastIn.FairnessMetric != "equal time in preferred seats" {
		t.Errorf("公平性指标未传入: %q", client.lastIn.FairnessMetric)
	}
	if got := client.lastIn.LockedSeats["王五"]; got != "中间" {
		t.Errorf("锁定约束未传入，实际=%q", got)
	}
	if got := client.lastIn.PastOverrides["张三"]; len(got) != 1 || got[0] != "靠门" {
		t.Errorf("历史偏好未传入，实际=%v", got)
	}
}

func TestSuggestionService_Suggest_Unconfigured(t *testing.T) {
	svc, _ := setupTestSuggestionService(nil)

	if _, err := svc.Suggest(context.Background(), "2025-01-06", "grp-1"); !errors.Is(err, ErrSuggestionUnavailable) {
		t.Errorf("期望 ErrSuggestionUnavailable，实际: %v", err)
	}
}

func TestSuggestionService_Suggest_ClientError(t *testing.T) {
	svc, _ := setupTestSuggestionService(&mockSuggestionClient{err: errMockAI})

	if _, err := svc.Suggest(context.Background(), "2025-01-06", "grp-1"); !errors.Is(err, ErrSuggestionUnavailable) {
		t.Errorf("期望 ErrSuggestionUnavailable，实际: %v", err)
	}
}

func TestSuggestionService_Suggest_InvalidSchedule(t *testing.T) {
	cases := []struct {
		name     string
		schedule map[string]string
	}{
		{"缺成员", map[string]string{"张三": "靠窗", "李四": "中间"}},
		{"座位重复", map[string]string{"张三": "靠窗", "李四": "靠窗", "王五": "中间"}},
		{"未知成员", map[string]string{"张三": "靠窗", "李四": "中间", "路人": "靠门"}},
		{"未知座位", map[string]string{"张三": "靠窗", "李四": "中间", "王五": "天台"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := setupTestSuggestionService(&mockSuggestionClient{schedule: tc.schedule})
			if _, err := svc.Suggest(context.Background(), "2025-01-06", "grp-1"); !errors.Is(err, ErrInvalidSchedule) {
				t.Errorf("期望 ErrInvalidSchedule，实际: %v", err)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════
// Apply 测试
// ════════════════════════════════════════════════════════════

func TestSuggestionService_Apply_ReplacesDay(t *testing.T) {
	svc, repos := setupTestSuggestionService(&mockSuggestionClient{})

	// 当日已有旧排座
	seedOld := &model.Assignment{
		AssignmentID: model.MakeAssignmentID("2025-01-06", "u-1"),
		Date:         "2025-01-06", UserID: "u-1", SeatID: "s-1", GroupID: "grp-1",
	}
	repos.assignment.assignments[seedOld.AssignmentID] = seedOld

	result, err := svc.Apply(context.Background(), "grp-1", &dto.ApplyScheduleRequest{
		Date: "2025-01-06",
		Schedule: map[string]string{
			"张三": "靠门", "李四": "靠窗", "王五": "中间",
		},
	})
	if err != nil {
		t.Fatalf("Apply 应成功: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("期望3条记录，实际=%d", len(result))
	}
	if got := seatOf(result, "u-1"); got != "s-3" {
		t.Errorf("张三应换到靠门(s-3)，实际=%s", got)
	}
}

func TestSuggestionService_Apply_RejectsInvalidSchedule(t *testing.T) {
	svc, _ := setupTestSuggestionService(&mockSuggestionClient{})

	_, err := svc.Apply(context.Background(), "grp-1", &dto.ApplyScheduleRequest{
		Date:     "2025-01-06",
		Schedule: map[string]string{"张三": "靠窗"},
	})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("期望 ErrInvalidSchedule，实际: %v", err)
	}
}
