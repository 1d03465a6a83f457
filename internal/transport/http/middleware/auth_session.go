package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-crm/internal/domain"
	resp "go-gin-gorm-crm/internal/transport/http/response"
)

const keyCaller = "caller"

// CallerResolver 从请求解析已登录用户
type CallerResolver interface {
	Caller(r *http.Request) (domain.Caller, bool, error)
}

// Session 解析会话 cookie；解析失败按匿名处理，不中断请求
func Session(sr CallerResolver, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok, err := sr.Caller(c.Request)
		if err != nil {
			l.Warn("session resolve failed", zap.String("rid", c.GetString(KeyRequestID)), zap.Error(err))
		}
		if ok {
			SetCaller(c, caller)
		}
		c.Next()
	}
}

func SetCaller(c *gin.Context, caller domain.Caller) { c.Set(keyCaller, caller) }

func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(keyCaller)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}

// RequireAuth 未登录 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CallerFrom(c); !ok {
			resp.Abort(c, http.StatusUnauthorized, "")
			return
		}
		c.Next()
	}
}

// RequireAdmin 未登录 401，非管理员 403
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, "")
			return
		}
		if !caller.IsAdmin() {
			resp.Abort(c, http.StatusForbidden, "管理者権限が必要です")
			return
		}
		c.Next()
	}
}

// WithCaller 固定调用者，跳过会话解析
func WithCaller(caller domain.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetCaller(c, caller)
		c.Next()
	}
}
