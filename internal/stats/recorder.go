package stats

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"shortmark/constant"
)

// Counts 某个短码在某天的访问统计
type Counts struct {
	DailyPV int64 `json:"dailyPv"`
	DailyUV int64 `json:"dailyUv"`
	TotalPV int64 `json:"totalPv"`
	TotalUV int64 `json:"totalUv"`
}

// Recorder 记录并读取短链访问统计
type Recorder interface {
	Record(ctx context.Context, code, visitor string)
	Counts(ctx context.Context, code, date string) (Counts, error)
	Forget(ctx context.Context, code string) error
	Rename(ctx context.Context, oldCode, newCode string) error
	Enabled() bool
}

// NopRecorder 未启用 redis 时使用
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string) {}
func (NopRecorder) Counts(context.Context, string, string) (Counts, error) {
	return Counts{}, nil
}
func (NopRecorder) Forget(context.Context, string) error         { return nil }
func (NopRecorder) Rename(context.Context, string, string) error { return nil }
func (NopRecorder) Enabled() bool                                { return false }

type RedisRecorder struct {
	pool   *redis.Pool
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisRecorder(pool *redis.Pool, logger *zap.Logger) *RedisRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRecorder{pool: pool, logger: logger, now: time.Now}
}

func (r *RedisRecorder) Enabled() bool { return true }

// Record 记录一次访问：每日 PV/UV、总 PV/UV。失败只记录日志，不影响跳转
func (r *RedisRecorder) Record(ctx context.Context, code, visitor string) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		r.logger.Warn("Failed to get redis connection for stats",
			zap.String("short_code", code),
			zap.Error(err))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			r.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	date := constant.GetDateKey(r.now())
	dailyPVKey := constant.GetDailyPVKey(date)
	dailyUVKey := constant.GetDailyUVKey(code, date)
	ttl := int64(constant.DailyKeyTTL / time.Second)

	r.do(conn, code, "record daily PV", "HINCRBY", dailyPVKey, code, 1)
	r.do(conn, code, "expire daily PV", "EXPIRE", dailyPVKey, ttl)
	r.do(conn, code, "record total PV", "INCR", constant.GetTotalPVKey(code))
	if visitor == "" {
		return
	}
	r.do(conn, code, "record daily UV", "PFADD", dailyUVKey, visitor)
	r.do(conn, code, "expire daily UV", "EXPIRE", dailyUVKey, ttl)
	r.do(conn, code, "record total UV", "PFADD", constant.GetTotalUVKey(code), visitor)
}

func (r *RedisRecorder) do(conn redis.Conn, code, action, cmd string, args ...interface{}) {
	if _, err := conn.Do(cmd, args...); err != nil {
		r.logger.Error("Failed to "+action,
			zap.String("short_code", code),
			zap.Error(err))
	}
}

// Counts 读取 date（yyyyMMdd）当天以及累计的统计，不存在的键按 0 处理
func (r *RedisRecorder) Counts(ctx context.Context, code, date string) (Counts, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return Counts{}, err
	}
	defer conn.Close()

	var c Counts
	if c.DailyPV, err = int64OrZero(conn.Do("HGET", constant.GetDailyPVKey(date), code)); err != nil {
		return Counts{}, err
	}
	if c.DailyUV, err = int64OrZero(conn.Do("PFCOUNT", constant.GetDailyUVKey(code, date))); err != nil {
		return Counts{}, err
	}
	if c.TotalPV, err = int64OrZero(conn.Do("GET", constant.GetTotalPVKey(code))); err != nil {
		return Counts{}, err
	}
	if c.TotalUV, err = int64OrZero(conn.Do("PFCOUNT", constant.GetTotalUVKey(code))); err != nil {
		return Counts{}, err
	}
	return c, nil
}

// Forget 删除短码的累计计数和仍在保留期内的每日计数（短链删除时调用）
func (r *RedisRecorder) Forget(ctx context.Context, code string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	keys := []interface{}{constant.GetTotalPVKey(code), constant.GetTotalUVKey(code)}
	for _, date := range r.liveDates() {
		if _, err := conn.Do("HDEL", constant.GetDailyPVKey(date), code); err != nil {
			return err
		}
		keys = append(keys, constant.GetDailyUVKey(code, date))
	}
	_, err = conn.Do("DEL", keys...)
	return err
}

// Rename 短码修改后把计数迁移到新短码下；新短码上残留的旧计数会被清掉
func (r *RedisRecorder) Rename(ctx context.Context, oldCode, newCode string) error {
	if oldCode == newCode {
		return nil
	}
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, date := range r.liveDates() {
		pvKey := constant.GetDailyPVKey(date)
		pv, err := int64OrZero(conn.Do("HGET", pvKey, oldCode))
		if err != nil {
			return err
		}
		if pv > 0 {
			if _, err := conn.Do("HSET", pvKey, newCode, pv); err != nil {
				return err
			}
		} else if _, err := conn.Do("HDEL", pvKey, newCode); err != nil {
			return err
		}
		if _, err := conn.Do("HDEL", pvKey, oldCode); err != nil {
			return err
		}
		if err := moveKey(conn, constant.GetDailyUVKey(oldCode, date), constant.GetDailyUVKey(newCode, date)); err != nil {
			return err
		}
	}
	if err := moveKey(conn, constant.GetTotalPVKey(oldCode), constant.GetTotalPVKey(newCode)); err != nil {
		return err
	}
	return moveKey(conn, constant.GetTotalUVKey(oldCode), constant.GetTotalUVKey(newCode))
}

// liveDates 每日键保留期内的日期，从今天往前
func (r *RedisRecorder) liveDates() []string {
	days := int(constant.DailyKeyTTL / (24 * time.Hour))
	now := r.now()
	dates := make([]string, 0, days+1)
	for i := 0; i <= days; i++ {
		dates = append(dates, constant.GetDateKey(now.AddDate(0, 0, -i)))
	}
	return dates
}

// moveKey src 存在时 RENAME（保留 TTL），否则删除 dst
func moveKey(conn redis.Conn, src, dst string) error {
	exists, err := redis.Bool(conn.Do("EXISTS", src))
	if err != nil {
		return err
	}
	if exists {
		_, err = conn.Do("RENAME", src, dst)
	} else {
		_, err = conn.Do("DEL", dst)
	}
	return err
}

func int64OrZero(reply interface{}, err error) (int64, error) {
	v, err := redis.Int64(reply, err)
	if errors.Is(err, redis.ErrNil) {
		return 0, nil
	}
	return v, err
}
