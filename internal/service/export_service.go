package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MdKasif0/FairDesk-v2/internal/model"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
	"github.com/MdKasif0/FairDesk-v2/pkg/calendar"
)

// ExportService 排座导出服务接口
type ExportService interface {
	// ExportMonth 导出某组某月的排座表（xlsx），缺失的工作日先补齐
	ExportMonth(ctx context.Context, groupID string, year int, month time.Month) (*bytes.Buffer, string, error)
	// ExportUserCalendar 导出某用户区间内的排座日历（ICS 订阅格式）
	ExportUserCalendar(ctx context.Context, groupID, userID, from, to string) (string, string, error)
}

type exportService struct {
	repo       *repository.Repository
	assignment AssignmentService
	logger     *zap.Logger
}

// NewExportService 创建导出服务实例
func NewExportService(repo *repository.Repository, assignment AssignmentService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, assignment: assignment, logger: logger}
}

func (s *exportService) ExportMonth(ctx context.Context, groupID string, year int, month time.Month) (*bytes.Buffer, string, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	from, to := calendar.Format(first), calendar.Format(last)

	// 先通过排座服务补齐区间，保证导出的是完整月份
	assignments, err := s.assignment.GetRange(ctx, from, to, groupID)
	if err != nil {
		return nil, "", err
	}

	users, err := s.repo.User.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, "", err
	}

	// 行：成员；列：工作日
	seatByUserDate := make(map[string]map[string]*model.Assignment)
	for i := range assignments {
		a := &assignments[i]
		if seatByUserDate[a.UserID] == nil {
			seatByUserDate[a.UserID] = make(map[string]*model.Assignment)
		}
		seatByUserDate[a.UserID][a.Date] = a
	}

	var days []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if calendar.IsWorkingDay(d) {
			days = append(days, calendar.Format(d))
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "排座表"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "成员")
	for col, day := range days {
		cell, err := excelize.CoordinatesToCellName(col+2, 1)
		if err != nil {
			return nil, "", err
		}
		f.SetCellValue(sheet, cell, day)
	}
	for row, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return nil, "", err
		}
		f.SetCellValue(sheet, cell, u.Name)
		for col, day := range days {
			cell, err := excelize.CoordinatesToCellName(col+2, row+2)
			if err != nil {
				return nil, "", err
			}
			f.SetCellValue(sheet, cell, s.cellText(ctx, seatByUserDate[u.UserID][day]))
		}
	}
	f.SetColWidth(sheet, "A", "A", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("seating_%04d-%02d.xlsx", year, month)
	return buf, filename, nil
}

func (s *exportService) cellText(ctx context.Context, a *model.Assignment) string {
	if a == nil {
		return "未分配"
	}
	name := a.SeatID
	if a.Seat != nil {
		name = a.Seat.Name
	} else if seat, err := s.repo.Seat.GetByID(ctx, a.SeatID); err == nil {
		name = seat.Name
	}
	if a.IsLocked {
		return name + "（锁定）"
	}
	return name
}

func (s *exportService) ExportUserCalendar(ctx context.Context, groupID, userID, from, to string) (string, string, error) {
	if _, err := calendar.Parse(from); err != nil {
		return "", "", ErrInvalidDate
	}
	if _, err := calendar.Parse(to); err != nil {
		return "", "", ErrInvalidDate
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	assignments, err := s.repo.Assignment.ListByUser(ctx, groupID, userID, from, to)
	if err != nil {
		return "", "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//FairDesk//Seating//ZH")
	cal.SetName(fmt.Sprintf("%s 的座位安排", user.Name))

	for i := range assignments {
		a := &assignments[i]
		day, err := calendar.Parse(a.Date)
		if err != nil {
			continue
		}
		event := cal.AddEvent(a.AssignmentID + "@fairdesk")
		event.SetDtStampTime(time.Now().UTC())
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		summary := "座位：" + a.SeatID
		if a.Seat != nil {
			summary = "座位：" + a.Seat.Name
		}
		if a.IsLocked {
			summary += "（锁定）"
		}
		event.SetSummary(summary)
	}

	filename := fmt.Sprintf("seating_%s.ics", userID)
	return cal.Serialize(), filename, nil
}
