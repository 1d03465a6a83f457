package cache

import (
	"context"
	"encoding/json"
	"time"
)

// JSON 同一命名空间下按 id 存取一类值
type JSON[T any] struct {
	c   *Cache
	ns  string
	ttl time.Duration
}

func NewJSON[T any](c *Cache, namespace string, ttl time.Duration) *JSON[T] {
	return &JSON[T]{c: c, ns: namespace + ":", ttl: ttl}
}

// Get 未命中时调用 load；load 返回 (nil, nil) 时缓存 null，读取时还原为 nil
func (j *JSON[T]) Get(ctx context.Context, id string, load func(ctx context.Context) (*T, error)) (*T, error) {
	b, err := j.c.GetOrLoad(ctx, j.ns+id, j.ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	out := new(T)
	if e := json.Unmarshal(b, out); e != nil {
		return nil, e
	}
	return out, nil
}

// Forget 删除缓存条目，下次 Get 回源
func (j *JSON[T]) Forget(ctx context.Context, ids ...string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = j.ns + id
	}
	return j.c.Del(ctx, keys...)
}
