package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"shortmark/internal/config"
)

// InitRedis 创建 redigo 连接池并做一次 PING 检查
func InitRedis(cfg config.RedisConfig, logger *zap.Logger) (*redis.Pool, error) {
	addr := cfg.Addr
	password := cfg.Password

	pool := &redis.Pool{
		MaxIdle:     10,
		MaxActive:   64,
		Wait:        true,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			conn, err := redis.Dial("tcp", addr,
				redis.DialConnectTimeout(3*time.Second),
				redis.DialReadTimeout(2*time.Second),
				redis.DialWriteTimeout(2*time.Second),
			)
			if err != nil {
				logger.Error("Failed to connect Redis",
					zap.String("addr", addr),
					zap.Error(err),
				)
				return nil, err
			}

			// 设置了密码则执行 AUTH
			if password != "" {
				if _, authErr := conn.Do("AUTH", password); authErr != nil {
					if closeErr := conn.Close(); closeErr != nil {
						logger.Error("Failed to close redis connection after AUTH failure",
							zap.String("addr", addr),
							zap.Error(closeErr),
						)
					}
					logger.Error("Redis AUTH failed",
						zap.String("addr", addr),
						zap.Error(authErr),
					)
					return nil, authErr
				}
			}

			logger.Debug("Redis connection established",
				zap.String("addr", addr),
				zap.Bool("auth", password != ""),
			)
			return conn, nil
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			if err != nil {
				logger.Warn("Redis connection health check failed",
					zap.String("addr", addr),
					zap.Error(err),
				)
			}
			return err
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := pool.GetContext(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("connecting redis %s: %w", addr, err)
	}
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("pinging redis %s: %w", addr, err)
	}

	logger.Info("Redis ready", zap.String("addr", addr))
	return pool, nil
}
