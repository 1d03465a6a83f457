package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
	"go-gin-gorm-crm/internal/transport/http/ez"
)

type UserService interface {
	List(ctx context.Context, caller domain.Caller, q service.UserQuery, p domain.Page) (domain.List[domain.User], error)
	Get(ctx context.Context, caller domain.Caller, id uint) (*domain.User, error)
	Create(ctx context.Context, caller domain.Caller, in service.CreateUserInput) (*domain.User, error)
	AdminUpdate(ctx context.Context, caller domain.Caller, id uint, in service.UpdateUserInput) error
	ChangePassword(ctx context.Context, caller domain.Caller, id uint, in service.ChangePasswordInput) error
	Delete(ctx context.Context, caller domain.Caller, id uint) error
}

type Users struct{ svc UserService }

func NewUsers(svc UserService) *Users { return &Users{svc: svc} }

type userListQ struct {
	ez.PageQuery
	ActiveOnly     bool `form:"active_only"`
	IncludeDeleted bool `form:"include_deleted"`
}

type userUpdateIn struct {
	ez.ID
	service.UpdateUserInput
}

type passwordIn struct {
	ez.ID
	service.ChangePasswordInput
}

func (h *Users) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.Register(e, ez.Action[userListQ, domain.List[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *userListQ) (domain.List[domain.User], error) {
			q := service.UserQuery{ActiveOnly: in.ActiveOnly, IncludeDeleted: in.IncludeDeleted}
			return h.svc.List(c.Request.Context(), caller, q, in.ToPage(service.DefaultUserLimit))
		},
	})

	ez.Register(e, ez.Action[service.CreateUserInput, created]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: ez.BindJSON,
		Auth:   ez.Admin,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, caller domain.Caller, in *service.CreateUserInput) (created, error) {
			u, err := h.svc.Create(c.Request.Context(), caller, *in)
			if err != nil {
				return nil, err
			}
			return newCreated("user", u.ID, "ユーザーを登録しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, userOut]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindURI,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (userOut, error) {
			u, err := h.svc.Get(c.Request.Context(), caller, in.ID)
			if err != nil {
				return userOut{}, err
			}
			return userOut{User: u}, nil
		},
	})

	// 非管理员只能改自己，role/is_active 被忽略
	ez.Register(e, ez.Action[userUpdateIn, message]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *userUpdateIn) (message, error) {
			if err := h.svc.AdminUpdate(c.Request.Context(), caller, in.ID.ID, in.UpdateUserInput); err != nil {
				return message{}, err
			}
			return msg("ユーザー情報を更新しました"), nil
		},
	})

	ez.Register(e, ez.Action[passwordIn, message]{
		Method: http.MethodPost,
		Path:   "/users/:id/change-password",
		Binder: ez.BindURI | ez.BindJSON,
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, in *passwordIn) (message, error) {
			if err := h.svc.ChangePassword(c.Request.Context(), caller, in.ID.ID, in.ChangePasswordInput); err != nil {
				return message{}, err
			}
			return msg("パスワードを変更しました"), nil
		},
	})

	ez.Register(e, ez.Action[ez.ID, message]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindURI,
		Auth:   ez.Admin,
		Handler: func(c *gin.Context, caller domain.Caller, in *ez.ID) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), caller, in.ID); err != nil {
				return message{}, err
			}
			return msg("ユーザーを削除しました"), nil
		},
	})
}
