package domain

import (
	"strings"
	"time"
)

// Str 空白串视为未填写
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StrPtr 可选字段：nil 保持 nil，空白串归一为 nil
func StrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return Str(*s)
}

// ParseDate 接受 YYYY-MM-DD 或 RFC3339；纯日期按 loc 解释
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// StartOfDay loc 时区下当天零点
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
