package session

import (
	"context"
	"time"

	"go-gin-gorm-crm/internal/domain"
)

// Record 服务端会话；身份字段在会话期间不变，角色变更需重新登录生效
type Record struct {
	ID        string      `gorm:"primaryKey;size:64" json:"id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	Username  string      `gorm:"size:64;not null" json:"username"`
	Name      string      `gorm:"size:128;not null" json:"name"`
	Role      domain.Role `gorm:"size:16;not null" json:"role"`
	ExpiresAt time.Time   `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
}

func (Record) TableName() string { return "sessions" }

func (r *Record) Caller() domain.Caller {
	return domain.Caller{ID: r.UserID, Username: r.Username, Name: r.Name, Role: r.Role}
}

// Backend 会话持久化；Load 未命中返回 (nil, nil)
type Backend interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
