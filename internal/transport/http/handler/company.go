package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
	"go-gin-gorm-crm/internal/transport/http/ez"
)

type CompanyService interface {
	List(ctx context.Context, caller domain.Caller, search string, p domain.Page) (domain.List[domain.CompanyRow], error)
	Get(ctx context.Context, caller domain.Caller, id uint) (*service.CompanyDetail, error)
	Create(ctx context.Context, caller domain.Caller, in service.CompanyInput) (*domain.Company, error)
	Update(ctx context.Context, caller domain.Caller, id uint, in service.CompanyInput) error
	Delete(ctx context.Context, caller domain.Caller, id uint) error
}

type Companies struct{ svc CompanyService }

func NewCompanies(svc CompanyService) *Companies { return &Companies{svc: svc} }

type companyListQ struct {
	ez.PageQuery
	Search string `form:"search"`
}

type companyUpdateIn struct {
	ez.ID
	service.CompanyInput
}

func (h *Companies) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.Register(e, ez.Action[companyListQ, domain.List[domain.CompanyRow]]{
		Method: http.MethodGet,
		Path:   "/companies",
		Binder: ez.BindQuery,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *companyListQ) (domain.List[domain.CompanyRow], error) {
			return h.svc.List(c.Request.Context(), caller, in.Search, in.ToPage(service.DefaultCompanyLimit))
		},
	})

	ez.Register(e, ez.Action[service.CompanyInput, created]{
		Method: http.MethodPost,
		Path:   "/companies",
		Binder: ez.BindJSON,
		Auth:   ez.User,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller domain.Caller, in *service.CompanyInput) (created, error) {
			co, err := h.svc.Create(c.Request.Context(), caller, *in)
			if err != nil {
				return nil, err
			}
			return newCreated("company", co.ID, "顧客を登録しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, *service.CompanyDetail]{
		Method: http.MethodGet,
		Path:   "/companies/:id",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (*service.CompanyDetail, error) {
			return h.svc.Get(c.Request.Context(), caller, in.ID)
		},
	})

	ez.Register(e, ez.Action[companyUpdateIn, message]{
		Method: http.MethodPut,
		Path:   "/companies/:id",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *companyUpdateIn) (message, error) {
			if err := h.svc.Update(c.Request.Context(), caller, in.ID.ID, in.CompanyInput); err != nil {
				return message{}, err
			}
			return msg("顧客情報を更新しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, message]{
		Method: http.MethodDelete,
		Path:   "/companies/:id",
		Binder: ez.BindURI,
		Auth:   ez.Admin,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), caller, in.ID); err != nil {
				return message{}, err
			}
			return msg("顧客を削除しました"), nil
		},
	})
}
