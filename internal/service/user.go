package service

import (
	"context"
	"strings"

	"go-gin-gorm-crm/internal/domain"
)

const DefaultUserLimit = 50

type CreateUserInput struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

// UpdateUserInput Role/IsActive 只在管理员请求中生效
type UpdateUserInput struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserQuery struct {
	ActiveOnly     bool
	IncludeDeleted bool
}

func parseRole(s string, def domain.Role) (domain.Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	r := domain.Role(s)
	if !r.Valid() {
		return "", domain.Validation("無効な権限です")
	}
	return r, nil
}

type UserService struct {
	users  domain.UserRepository
	hasher PasswordHasher
}

func NewUserService(users domain.UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

func (s *UserService) load(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr("load user", err)
	}
	if u == nil {
		return nil, domain.NotFound("ユーザーが見つかりません")
	}
	return u, nil
}

// List 非管理员的 IncludeDeleted 被忽略
func (s *UserService) List(ctx context.Context, caller domain.Caller, q UserQuery, p domain.Page) (domain.List[domain.User], error) {
	f := domain.UserFilter{ActiveOnly: q.ActiveOnly, IncludeDeleted: q.IncludeDeleted && caller.IsAdmin()}
	items, total, err := s.users.List(ctx, f, p)
	if err != nil {
		return domain.List[domain.User]{}, dbErr("list users", err)
	}
	return domain.NewList(items, p, total), nil
}

func (s *UserService) Get(ctx context.Context, _ domain.Caller, id uint) (*domain.User, error) {
	return s.load(ctx, id)
}

func (s *UserService) Create(ctx context.Context, caller domain.Caller, in CreateUserInput) (*domain.User, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("管理者権限が必要です")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("ユーザー名、パスワード、氏名は必須です")
	}
	role, err := parseRole(in.Role, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, dbErr("check username", err)
	}
	if taken {
		return nil, domain.Conflict("このユーザー名は既に使用されています")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}
	u := domain.User{
		Username:     username,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Email:        domain.StrPtr(in.Email),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, dbErr("create user", err)
	}
	return &u, nil
}

// UpdateProfile 本人修改氏名与邮箱，role/is_active 保持原值
func (s *UserService) UpdateProfile(ctx context.Context, caller domain.Caller, id uint, in UpdateUserInput) error {
	if !caller.IsAdmin() && caller.ID != id {
		return domain.Forbidden("他のユーザーを編集する権限がありません")
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("氏名は必須です")
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Email = domain.StrPtr(in.Email)
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return dbErr("update user", err)
	}
	return nil
}

// AdminUpdate 额外可改 role 与 is_active；未提供时保留原值
func (s *UserService) AdminUpdate(ctx context.Context, caller domain.Caller, id uint, in UpdateUserInput) error {
	if !caller.IsAdmin() {
		return s.UpdateProfile(ctx, caller, id, in)
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("氏名は必須です")
	}
	role, err := parseRole(in.Role, u.Role)
	if err != nil {
		return err
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Email = domain.StrPtr(in.Email)
	u.Role = role
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return dbErr("update user", err)
	}
	return nil
}

// ChangePassword 非管理员必须校验当前密码
func (s *UserService) ChangePassword(ctx context.Context, caller domain.Caller, id uint, in ChangePasswordInput) error {
	if !caller.IsAdmin() && caller.ID != id {
		return domain.Forbidden("他のユーザーのパスワードを変更する権限がありません")
	}
	if in.NewPassword == "" {
		return domain.Validation("新しいパスワードは必須です")
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		if in.CurrentPassword == "" {
			return domain.Validation("現在のパスワードは必須です")
		}
		ok, err := s.hasher.Compare(u.PasswordHash, in.CurrentPassword)
		if err != nil {
			return domain.Internal("compare password", err)
		}
		if !ok {
			return domain.Unauthenticated("現在のパスワードが正しくありません")
		}
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return domain.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return dbErr("update password", err)
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	if !caller.IsAdmin() {
		return domain.Forbidden("管理者権限が必要です")
	}
	if caller.ID == id {
		return domain.Validation("自分自身を削除することはできません")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return dbErr("delete user", err)
	}
	return nil
}

// ResetPassword 运维命令使用，不做调用方校验
func (s *UserService) ResetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return domain.Validation("新しいパスワードは必須です")
	}
	u, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		return dbErr("load user", err)
	}
	if u == nil {
		return domain.NotFound("ユーザーが見つかりません")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return dbErr("update password", err)
	}
	return nil
}
