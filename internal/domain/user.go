package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string         `gorm:"size:100;not null" json:"-"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Email        *string        `gorm:"size:255" json:"email"`
	Role         Role           `gorm:"size:16;not null" json:"role"` // "admin"/"user"
	IsActive     bool           `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (User) TableName() string { return "users" }

// UserFilter 用户列表筛选；IncludeDeleted 只对管理员开放
type UserFilter struct {
	ActiveOnly     bool
	IncludeDeleted bool
}

// UserRepository 未命中（含软删）统一返回 (nil, nil)
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindActiveByUsername(ctx context.Context, username string) (*User, error)
	// UsernameExists 包含已软删的行（与唯一索引一致）
	UsernameExists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, f UserFilter, p Page) ([]User, int64, error)
	Count(ctx context.Context) (int64, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SoftDelete(ctx context.Context, id uint) error
}
