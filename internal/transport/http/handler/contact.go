package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
	"go-gin-gorm-crm/internal/transport/http/ez"
)

type ContactService interface {
	ListByCompany(ctx context.Context, caller domain.Caller, companyID uint, p domain.Page) (domain.List[domain.Contact], error)
	Get(ctx context.Context, caller domain.Caller, id uint) (*service.ContactView, error)
	Create(ctx context.Context, caller domain.Caller, companyID uint, in service.ContactInput) (*domain.Contact, error)
	Update(ctx context.Context, caller domain.Caller, id uint, in service.ContactInput) error
	Delete(ctx context.Context, caller domain.Caller, id uint) error
	Assign(ctx context.Context, caller domain.Caller, companyID uint, in service.AssignInput) (*domain.CompanyAssignment, error)
	Unassign(ctx context.Context, caller domain.Caller, assignmentID uint) error
}

type Contacts struct{ svc ContactService }

func NewContacts(svc ContactService) *Contacts { return &Contacts{svc: svc} }

type contactListQ struct {
	companyRef
	ez.PageQuery
}

type contactCreateIn struct {
	companyRef
	service.ContactInput
}

type contactUpdateIn struct {
	ez.ID
	service.ContactInput
}

type assignIn struct {
	companyRef
	service.AssignInput
}

type assignmentRef struct {
	AssignmentID uint `uri:"assignmentId" binding:"required"`
}

type contactOut struct {
	Contact *service.ContactView `json:"contact"`
}

func (h *Contacts) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.Register(e, ez.Action[contactListQ, domain.List[domain.Contact]]{
		Method: http.MethodGet,
		Path:   "/contacts/company/:companyId",
		Binder: ez.BindURI | ez.BindQuery,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *contactListQ) (domain.List[domain.Contact], error) {
			return h.svc.ListByCompany(c.Request.Context(), caller, in.CompanyID, in.ToPage(domain.MaxPageLimit))
		},
	})

	ez.Register(e, ez.Action[contactCreateIn, created]{
		Method: http.MethodPost,
		Path:   "/contacts/company/:companyId",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller domain.Caller, in *contactCreateIn) (created, error) {
			ct, err := h.svc.Create(c.Request.Context(), caller, in.CompanyID, in.ContactInput)
			if err != nil {
				return nil, err
			}
			return newCreated("contact", ct.ID, "取引先担当者を登録しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, contactOut]{
		Method: http.MethodGet,
		Path:   "/contacts/:id",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (contactOut, error) {
			ct, err := h.svc.Get(c.Request.Context(), caller, in.ID)
			if err != nil {
				return contactOut{}, err
			}
			return contactOut{Contact: ct}, nil
		},
	})

	ez.Register(e, ez.Action[contactUpdateIn, message]{
		Method: http.MethodPut,
		Path:   "/contacts/:id",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *contactUpdateIn) (message, error) {
			if err := h.svc.Update(c.Request.Context(), caller, in.ID.ID, in.ContactInput); err != nil {
				return message{}, err
			}
			return msg("取引先担当者を更新しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, message]{
		Method: http.MethodDelete,
		Path:   "/contacts/:id",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), caller, in.ID); err != nil {
				return message{}, err
			}
			return msg("取引先担当者を削除しました"), nil
		},
	})

	ez.Register(e, ez.Action[assignIn, created]{
		Method: http.MethodPost,
		Path:   "/contacts/company/:companyId/assign",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller domain.Caller, in *assignIn) (created, error) {
			a, err := h.svc.Assign(c.Request.Context(), caller, in.CompanyID, in.AssignInput)
			if err != nil {
				return nil, err
			}
			return newCreated("assignment", a.ID, "担当者を割り当てました"), nil
		},
	})

	ez.Register(e, ez.Action[assignmentRef, message]{
		Method: http.MethodDelete,
		Path:   "/contacts/assignment/:assignmentId",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *assignmentRef) (message, error) {
			if err := h.svc.Unassign(c.Request.Context(), caller, in.AssignmentID); err != nil {
				return message{}, err
			}
			return msg("担当者の割り当てを解除しました"), nil
		},
	})
}
