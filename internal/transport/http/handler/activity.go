package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
	"go-gin-gorm-crm/internal/transport/http/ez"
)

type ActivityService interface {
	ListByCompany(ctx context.Context, caller domain.Caller, companyID uint, p domain.Page) (domain.List[domain.ActivityView], error)
	NextActions(ctx context.Context, caller domain.Caller, q service.NextActionQuery, p domain.Page) (domain.List[domain.ActivityView], error)
	Get(ctx context.Context, caller domain.Caller, id uint) (*domain.ActivityView, error)
	Create(ctx context.Context, caller domain.Caller, in service.ActivityInput) (*domain.ActivityLog, error)
	Update(ctx context.Context, caller domain.Caller, id uint, in service.ActivityInput) error
	Delete(ctx context.Context, caller domain.Caller, id uint) error
}

type Activities struct{ svc ActivityService }

func NewActivities(svc ActivityService) *Activities { return &Activities{svc: svc} }

type activityListQ struct {
	companyRef
	ez.PageQuery
}

type nextActionQ struct {
	ez.PageQuery
	Days    *int `form:"days"`
	Overdue bool `form:"overdue"`
}

type activityCreateIn struct {
	companyRef
	service.ActivityInput
}

type activityUpdateIn struct {
	ez.ID
	service.ActivityInput
}

type activityOut struct {
	Activity *domain.ActivityView `json:"activity"`
}

func (h *Activities) create(c *gin.Context, caller domain.Caller, in service.ActivityInput) (created, error) {
	a, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		return nil, err
	}
	return newCreated("activity", a.ID, "活動履歴を登録しました"), nil
}

func (h *Activities) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.Register(e, ez.Action[nextActionQ, domain.List[domain.ActivityView]]{
		Method: http.MethodGet,
		Path:   "/activities/next-actions",
		Binder: ez.BindQuery,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *nextActionQ) (domain.List[domain.ActivityView], error) {
			q := service.NextActionQuery{Days: service.DefaultNextDays, Overdue: in.Overdue}
			if in.Days != nil {
				q.Days = *in.Days
			}
			return h.svc.NextActions(c.Request.Context(), caller, q, in.ToPage(service.DefaultActivityLimit))
		},
	})

	ez.Register(e, ez.Action[activityListQ, domain.List[domain.ActivityView]]{
		Method: http.MethodGet,
		Path:   "/activities/company/:companyId",
		Binder: ez.BindURI | ez.BindQuery,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *activityListQ) (domain.List[domain.ActivityView], error) {
			return h.svc.ListByCompany(c.Request.Context(), caller, in.CompanyID, in.ToPage(service.DefaultActivityLimit))
		},
	})

	// 路径上的 companyId 优先于请求体
	ez.Register(e, ez.Action[activityCreateIn, created]{
		Method: http.MethodPost,
		Path:   "/activities/company/:companyId",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller domain.Caller, in *activityCreateIn) (created, error) {
			body := in.ActivityInput
			body.CompanyID = in.companyRef.CompanyID
			return h.create(c, caller, body)
		},
	})

	ez.Register(e, ez.Action[service.ActivityInput, created]{
		Method: http.MethodPost,
		Path:   "/activities",
		Binder: ez.BindJSON,
		Auth:   ez.User,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller domain.Caller, in *service.ActivityInput) (created, error) {
			return h.create(c, caller, *in)
		},
	})

	ez.Register(e, ez.Action[ez.ID, activityOut]{
		Method: http.MethodGet,
		Path:   "/activities/:id",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (activityOut, error) {
			a, err := h.svc.Get(c.Request.Context(), caller, in.ID)
			if err != nil {
				return activityOut{}, err
			}
			return activityOut{Activity: a}, nil
		},
	})

	ez.Register(e, ez.Action[activityUpdateIn, message]{
		Method: http.MethodPut,
		Path:   "/activities/:id",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *activityUpdateIn) (message, error) {
			if err := h.svc.Update(c.Request.Context(), caller, in.ID.ID, in.ActivityInput); err != nil {
				return message{}, err
			}
			return msg("活動履歴を更新しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, message]{
		Method: http.MethodDelete,
		Path:   "/activities/:id",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), caller, in.ID); err != nil {
				return message{}, err
			}
			return msg("活動履歴を削除しました"), nil
		},
	})
}
