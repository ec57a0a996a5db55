package repository

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shortmark/internal/config"
)

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	pool, err := InitRedis(config.RedisConfig{Enabled: true, Addr: mr.Addr(), Password: "secret"}, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	conn := pool.Get()
	defer conn.Close()
	_, err = conn.Do("SET", "k", "v")
	require.NoError(t, err)
	v, err := redis.String(conn.Do("GET", "k"))
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestInitRedisFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	_, err := InitRedis(config.RedisConfig{Addr: mr.Addr(), Password: "wrong"}, zap.NewNop())
	assert.Error(t, err)

	stopped, err := miniredis.Run()
	require.NoError(t, err)
	addr := stopped.Addr()
	stopped.Close()
	_, err = InitRedis(config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}
