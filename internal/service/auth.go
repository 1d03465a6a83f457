package service

import (
	"context"
	"strings"
	"sync"

	"go-gin-gorm-crm/internal/domain"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type BootstrapAdmin struct {
	Username string
	Password string
	Name     string
	Email    string
}

const badCredentials = "ユーザー名またはパスワードが正しくありません"

type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users domain.UserRepository, hasher PasswordHasher) *AuthService {
	return &AuthService{users: users, hasher: hasher}
}

// dummy 用户不存在时也跑一次 bcrypt，响应时间与密码错误一致
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

// Login 用户不存在、已停用、已删除、密码错误返回同一个 401
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.Validation("ユーザー名とパスワードを入力してください")
	}
	u, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		return nil, dbErr("load user", err)
	}
	if u == nil {
		_, _ = s.hasher.Compare(s.dummy(), in.Password)
		return nil, domain.Unauthenticated(badCredentials)
	}
	ok, err := s.hasher.Compare(u.PasswordHash, in.Password)
	if err != nil {
		return nil, domain.Internal("compare password", err)
	}
	if !ok {
		return nil, domain.Unauthenticated(badCredentials)
	}
	return u, nil
}

// Me 重新读取资料；账号已停用或删除时 404
func (s *AuthService) Me(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, dbErr("load user", err)
	}
	if u == nil || !u.IsActive {
		return nil, domain.NotFound("ユーザーが見つかりません")
	}
	return u, nil
}

// EnsureAdmin 用户表为空时写入初始管理员，返回是否创建
func (s *AuthService) EnsureAdmin(ctx context.Context, b BootstrapAdmin) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, dbErr("count users", err)
	}
	if n > 0 {
		return false, nil
	}
	if b.Username == "" || b.Password == "" {
		return false, domain.Validation("bootstrap admin username/password required")
	}
	hash, err := s.hasher.Hash(b.Password)
	if err != nil {
		return false, domain.Internal("hash password", err)
	}
	name := b.Name
	if name == "" {
		name = b.Username
	}
	u := domain.User{
		Username:     b.Username,
		PasswordHash: hash,
		Name:         name,
		Email:        domain.Str(b.Email),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return false, dbErr("create admin", err)
	}
	return true, nil
}
