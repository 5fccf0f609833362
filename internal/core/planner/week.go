// Package planner 由各食譜的規劃旗標推導每週餐點計畫
package planner

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期字串格式
const DateLayout = "2006-01-02"

// DayNames 以週一為首的星期名稱
var DayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayAbbrevs 星期縮寫
var DayAbbrevs = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// dateOnly 取 t 在其所在時區的日曆日期，統一為 UTC 午夜
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayIndex 週一為 0 的星期索引
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DayName 星期名稱
func DayName(t time.Time) string {
	return DayNames[DayIndex(t)]
}

// WeekStartOf t 所在 ISO 週的週一
func WeekStartOf(t time.Time) time.Time {
	d := dateOnly(t)
	return d.AddDate(0, 0, -DayIndex(d))
}

// ParseDate 解析 YYYY-MM-DD，也接受帶時間的 RFC3339 字串（取日期部分）
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate 格式化為 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekStartString 日期字串所在週的週一
func WeekStartString(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(WeekStartOf(t)), nil
}

// CurrentWeekStart 今天所在週的週一
func CurrentWeekStart(now time.Time) string {
	return FormatDate(WeekStartOf(now))
}

// WeekEnd 週一對應的週日
func WeekEnd(weekStart string) (string, error) {
	t, err := ParseDate(weekStart)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, 6)), nil
}

// WeekIsPast 週一為 weekStart 的整週是否已完全過去（下週一嚴格早於 now）
// 週一以 now 的時區解讀
func WeekIsPast(weekStart string, now time.Time) (bool, error) {
	t, err := ParseDate(weekStart)
	if err != nil {
		return false, err
	}
	nextMonday := time.Date(t.Year(), t.Month(), t.Day()+7, 0, 0, 0, 0, now.Location())
	return nextMonday.Before(now), nil
}
