package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	seedGroup(repos)
	logger := zap.NewNop()
	assignment := NewAssignmentService(repos.toRepository(), nil, logger)
	svc := NewExportService(repos.toRepository(), assignment, logger)
	return svc, repos
}

func TestExportService_ExportMonth_BuildsGrid(t *testing.T) {
	svc, _ := setupTestExportService()

	buf, filename, err := svc.ExportMonth(context.Background(), "grp-1", 2025, time.January)
	if err != nil {
		t.Fatalf("ExportMonth 应成功: %v", err)
	}
	if filename != "seating_2025-01.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可解析: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("排座表")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 表头 + 3名成员
	if len(rows) != 4 {
		t.Fatalf("期望4行，实际=%d", len(rows))
	}
	// 2025年1月有23个工作日
	if got := len(rows[0]) - 1; got != 23 {
		t.Errorf("期望23个工作日列，实际=%d", got)
	}
	if rows[0][0] != "成员" {
		t.Errorf("表头首列错误: %s", rows[0][0])
	}
	// 每个数据单元格都应有座位名
	for i, row := range rows[1:] {
		for j, cell := range row[1:] {
			if cell == "" || cell == "未分配" {
				t.Errorf("第%d行第%d列不应为空缺", i+2, j+2)
			}
		}
	}
}

func TestExportService_ExportUserCalendar_ICS(t *testing.T) {
	svc, repos := setupTestExportService()

	// 先物化一周的排座
	assignment := NewAssignmentService(repos.toRepository(), nil, zap.NewNop())
	if _, err := assignment.GetRange(context.Background(), "2025-01-06", "2025-01-10", "grp-1"); err != nil {
		t.Fatalf("排座应成功: %v", err)
	}

	content, filename, err := svc.ExportUserCalendar(context.Background(), "grp-1", "u-1", "2025-01-06", "2025-01-10")
	if err != nil {
		t.Fatalf("ExportUserCalendar 应成功: %v", err)
	}
	if filename != "seating_u-1.ics" {
		t.Errorf("文件名错误: %s", filename)
	}
	if !strings.Contains(content, "BEGIN:VCALENDAR") {
		t.Error("缺少 VCALENDAR 头")
	}
	// 5个工作日 = 5个事件
	if got := strings.Count(content, "BEGIN:VEVENT"); got != 5 {
		t.Errorf("期望5个事件，实际=%d", got)
	}
	if !strings.Contains(content, "SUMMARY:") {
		t.Error("事件应包含座位摘要")
	}
}

func TestExportService_ExportUserCalendar_InvalidDate(t *testing.T) {
	svc, _ := setupTestExportService()

	if _, _, err := svc.ExportUserCalendar(context.Background(), "grp-1", "u-1", "bad", "2025-01-10"); err == nil {
		t.Error("非法日期应报错")
	}
}
