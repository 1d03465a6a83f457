package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-crm/internal/core/cache"
)

// Cached redis 读穿缓存；写入与删除前后各清一次缓存，
// 并发回源写回的旧记录最多存活一个缓存 TTL
type Cached struct {
	next    Backend
	records *cache.JSON[Record]
	log     *zap.Logger
}

func NewCached(next Backend, c *cache.Cache, ttl time.Duration, l *zap.Logger) *Cached {
	return &Cached{next: next, records: cache.NewJSON[Record](c, "session", ttl), log: l}
}

func (b *Cached) Load(ctx context.Context, id string) (*Record, error) {
	return b.records.Get(ctx, id, func(ctx context.Context) (*Record, error) {
		return b.next.Load(ctx, id)
	})
}

func (b *Cached) Save(ctx context.Context, rec *Record) error {
	b.forget(ctx, rec.ID)
	if err := b.next.Save(ctx, rec); err != nil {
		return err
	}
	b.forget(ctx, rec.ID)
	return nil
}

func (b *Cached) Delete(ctx context.Context, id string) error {
	b.forget(ctx, id)
	if err := b.next.Delete(ctx, id); err != nil {
		return err
	}
	b.forget(ctx, id)
	return nil
}

// PurgeExpired 缓存条目靠 TTL 过期，Store 读取时也会校验 ExpiresAt
func (b *Cached) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return b.next.PurgeExpired(ctx, now)
}

func (b *Cached) forget(ctx context.Context, id string) {
	if err := b.records.Forget(ctx, id); err != nil {
		b.log.Warn("session cache forget failed", zap.String("sid", shortID(id)), zap.Error(err))
	}
}

// shortID 日志里只留会话 ID 前缀
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
