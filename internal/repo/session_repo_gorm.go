package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-gorm-crm/internal/core/session"
)

// SessionRepo session.Backend 的 gorm 实现（硬删除）
type SessionRepo struct{ db *gorm.DB }

func NewSessionRepo(db *gorm.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Load(ctx context.Context, id string) (*session.Record, error) {
	return first[session.Record](r.db.WithContext(ctx), "id = ?", id)
}

func (r *SessionRepo) Save(ctx context.Context, rec *session.Record) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&session.Record{}).Error
}

func (r *SessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&session.Record{})
	return res.RowsAffected, res.Error
}
