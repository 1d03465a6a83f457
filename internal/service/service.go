package service

import (
	"time"

	"go-gin-gorm-crm/internal/domain"
)

type PasswordHasher interface {
	Hash(pw string) (string, error)
	Compare(hashed, pw string) (bool, error)
}

// Renderer 备注字段转 HTML；为 nil 时不输出 *_html
type Renderer interface {
	Render(src string) string
	RenderPtr(src *string) string
}

// Clock 可注入的时间源，测试里用固定时间
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func render(r Renderer, s *string) string {
	if r == nil {
		return ""
	}
	return r.RenderPtr(s)
}

func dbErr(op string, err error) error {
	return domain.Internal(op, err)
}
