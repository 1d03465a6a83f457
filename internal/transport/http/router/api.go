package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-gorm-crm/internal/core/server"
	"go-gin-gorm-crm/internal/transport/http/handler"
	mdw "go-gin-gorm-crm/internal/transport/http/middleware"
	resp "go-gin-gorm-crm/internal/transport/http/response"
)

type Options struct {
	AllowOrigins   []string
	MaxBodyBytes   int64
	MaxInFlight    int64
	RequestTimeout time.Duration
	Metrics        bool
}

// Deps 组装 engine 所需的全部依赖
type Deps struct {
	Logger   *zap.Logger
	Sessions mdw.CallerResolver
	Health   *handler.Health
	Modules  []APIModule
}

func NewAPIEngine(o Options, d Deps) *gin.Engine {
	r := server.NewRouter(server.CORSOptions{AllowOrigins: o.AllowOrigins})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.ConcurrencyLimit(o.MaxInFlight),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.RequestTimeout),
		mdw.Recovery(d.Logger),
		mdw.Metrics(),
		mdw.Session(d.Sessions, d.Logger),
		mdw.AccessLog(d.Logger),
	)

	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "") })
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		resp.Abort(c, http.StatusMethodNotAllowed, "許可されていないメソッドです")
	})

	if o.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	health := d.Health
	if health == nil {
		health = &handler.Health{}
	}
	health.Mount(r)

	api := r.Group("/api")
	reg := &Registry{}
	reg.Register(health)
	reg.Register(d.Modules...)
	reg.MountAll(api)

	return r
}
