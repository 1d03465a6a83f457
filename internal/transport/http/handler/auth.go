package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
	"go-gin-gorm-crm/internal/transport/http/ez"
	mdw "go-gin-gorm-crm/internal/transport/http/middleware"
)

type AuthService interface {
	Login(ctx context.Context, in service.LoginInput) (*domain.User, error)
	Me(ctx context.Context, caller domain.Caller) (*domain.User, error)
}

// SessionGateway 会话签发与销毁
type SessionGateway interface {
	Login(w http.ResponseWriter, r *http.Request, c domain.Caller) error
	Logout(w http.ResponseWriter, r *http.Request) error
}

type Auth struct {
	svc  AuthService
	sess SessionGateway
}

func NewAuth(svc AuthService, sess SessionGateway) *Auth { return &Auth{svc: svc, sess: sess} }

func (h *Auth) Priority() int { return 10 }

type userOut struct {
	User *domain.User `json:"user"`
}

type loginOut struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

func (h *Auth) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.Register(e, ez.Action[service.LoginInput, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Auth:   ez.Public,
		Handler: func(c *gin.Context, _ domain.Caller, in *service.LoginInput) (loginOut, error) {
			u, err := h.svc.Login(c.Request.Context(), *in)
			if err != nil {
				if domain.KindOf(err) == domain.KindUnauthenticated {
					mdw.ObserveLogin("denied")
				} else {
					mdw.ObserveLogin("error")
				}
				return loginOut{}, err
			}
			caller := domain.Caller{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
			if err := h.sess.Login(c.Writer, c.Request, caller); err != nil {
				mdw.ObserveLogin("error")
				return loginOut{}, domain.Internal("issue session", err)
			}
			mdw.ObserveLogin("ok")
			return loginOut{Message: "ログインしました", User: u}, nil
		},
	})

	ez.Register(e, ez.Action[struct{}, message]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Auth:   ez.User,
		Handler: func(c *gin.Context, _ domain.Caller, _ *struct{}) (message, error) {
			if err := h.sess.Logout(c.Writer, c.Request); err != nil {
				return message{}, domain.Internal("destroy session", err)
			}
			return msg("ログアウトしました"), nil
		},
	})

	ez.Register(e, ez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/auth/me",
		Auth:   ez.User,
		Handler: func(c *gin.Context, caller domain.Caller, _ *struct{}) (userOut, error) {
			u, err := h.svc.Me(c.Request.Context(), caller)
			if err != nil {
				return userOut{}, err
			}
			return userOut{User: u}, nil
		},
	})
}
