package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"shortmark/constant"
)

// Entry 解析短链所需的最小信息
type Entry struct {
	ID        string `json:"id"`
	TargetURL string `json:"targetUrl"`
}

// LinkCache 短码 -> Entry 的解析缓存
type LinkCache interface {
	Get(ctx context.Context, code string) (*Entry, bool, error)
	Set(ctx context.Context, code string, entry Entry) error
	Delete(ctx context.Context, codes ...string) error
}

// NopLinkCache 未启用 redis 时使用，永远未命中
type NopLinkCache struct{}

func (NopLinkCache) Get(context.Context, string) (*Entry, bool, error) { return nil, false, nil }
func (NopLinkCache) Set(context.Context, string, Entry) error          { return nil }
func (NopLinkCache) Delete(context.Context, ...string) error           { return nil }

type RedisLinkCache struct {
	pool *redis.Pool
	ttl  time.Duration
}

func NewRedisLinkCache(pool *redis.Pool, ttl time.Duration) *RedisLinkCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLinkCache{pool: pool, ttl: ttl}
}

func (c *RedisLinkCache) Get(ctx context.Context, code string) (*Entry, bool, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, false, err
	}
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", constant.GetLinkCacheKey(code)))
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.ID == "" {
		// 脏数据按未命中处理，顺便清掉
		_, _ = conn.Do("DEL", constant.GetLinkCacheKey(code))
		return nil, false, nil
	}
	return &entry, true, nil
}

func (c *RedisLinkCache) Set(ctx context.Context, code string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SET", constant.GetLinkCacheKey(code), raw, "PX", c.ttl.Milliseconds())
	return err
}

func (c *RedisLinkCache) Delete(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		args = append(args, constant.GetLinkCacheKey(code))
	}
	_, err = conn.Do("DEL", args...)
	return err
}
