package calendar

import (
	"fmt"
	"time"
)

// ── 工作日历工具 ──────────────────────────────────────────────
//
// 排座轮换只在工作日（周一~周五）推进，周末不产生新排座。
// 所有日期按自然日粒度处理（yyyy-mm-dd），不携带时区信息，
// 统一规整到 UTC 零点后参与比较和运算。
// ─────────────────────────────────────────────────────────────

// Layout 日期序列化格式
const Layout = "2006-01-02"

// Parse 解析 yyyy-mm-dd 字符串为 UTC 零点时间
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期 %q: %w", s, err)
	}
	return t, nil
}

// Format 将时间格式化为 yyyy-mm-dd
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Truncate 去除时分秒，规整到 UTC 零点
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWorkingDay 是否为工作日（非周六/周日）
func IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// CountWorkingDays 统计 (from, to] 区间内的工作日数量
// from 当天不计入，to 当天计入；to 早于或等于 from 时返回 0
func CountWorkingDays(from, to time.Time) int {
	from = Truncate(from)
	to = Truncate(to)

	count := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// NextWorkingDay 返回给定日期之后最近的工作日
// 逐天前进，周六/周日连续出现时继续跳过
func NextWorkingDay(t time.Time) time.Time {
	d := Truncate(t).AddDate(0, 0, 1)
	for !IsWorkingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevWorkingDay 返回给定日期之前最近的工作日
func PrevWorkingDay(t time.Time) time.Time {
	d := Truncate(t).AddDate(0, 0, -1)
	for !IsWorkingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
