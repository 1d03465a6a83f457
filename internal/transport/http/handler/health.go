package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health 可选 Check（如 DB ping）失败时返回 503
type Health struct {
	Check func(ctx context.Context) error
	Now   func() time.Time
}

func (h *Health) Priority() int { return 0 }

func (h *Health) handle(c *gin.Context) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	body := gin.H{"status": "ok", "timestamp": now().UTC().Format(time.RFC3339)}
	if h.Check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Check(ctx); err != nil {
			_ = c.Error(err)
			body["status"] = "error"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}

// Mount 挂在根路由，/health 不带 /api 前缀
func (h *Health) Mount(r gin.IRoutes) { r.GET("/health", h.handle) }

func (h *Health) MountAPI(g *gin.RouterGroup) { g.GET("/health", h.handle) }
