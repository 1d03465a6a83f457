package ez

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
	mdw "go-gin-gorm-crm/internal/transport/http/middleware"
	resp "go-gin-gorm-crm/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// Binder 绑定方式，可组合：BindURI | BindJSON
type Binder uint8

const (
	BindURI   Binder = 1 << iota // :id 等路径参数，字段用 `uri:"id"`
	BindQuery                    // ?page=1
	BindJSON                     // 请求体

	BindNone Binder = 0
)

// Auth 访问级别
type Auth uint8

const (
	Public Auth = iota
	User
	Admin
)

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/companies/:id"
	Binder  Binder
	Auth    Auth
	Status  int // 成功状态码，默认 200
	Handler func(c *gin.Context, caller domain.Caller, in *I) (O, error)
}

func bind(c *gin.Context, b Binder, in any) error {
	if b&BindURI != 0 {
		if err := c.ShouldBindUri(in); err != nil {
			return err
		}
	}
	if b&BindQuery != 0 {
		if err := c.ShouldBindQuery(in); err != nil {
			return err
		}
	}
	if b&BindJSON != 0 {
		if err := c.ShouldBindJSON(in); err != nil {
			return err
		}
	}
	return nil
}

// Register 在当前分组下注册动作
func Register[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		caller, ok := mdw.CallerFrom(c)
		if a.Auth != Public && !ok {
			resp.Abort(c, http.StatusUnauthorized, "")
			return
		}
		if a.Auth == Admin && !caller.IsAdmin() {
			resp.Abort(c, http.StatusForbidden, "管理者権限が必要です")
			return
		}

		// 2) 绑定入参
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			_ = c.Error(err).SetType(gin.ErrorTypeBind)
			resp.Abort(c, http.StatusBadRequest, "")
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, caller, &in)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// ID 路径参数 :id
type ID struct {
	ID uint `uri:"id" binding:"required" json:"-"`
}

// PageQuery 列表通用分页参数
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (q PageQuery) ToPage(def int) domain.Page { return domain.NewPage(q.Page, q.Limit, def) }
