package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/cache"
	"shortmark/internal/config"
	"shortmark/internal/model"
	"shortmark/internal/repository"
	"shortmark/internal/stats"
)

var (
	owner      = auth.Principal{UserID: "owner-1", IsVerified: true}
	unverified = auth.Principal{UserID: "owner-1"}
	stranger   = auth.Principal{UserID: "stranger-1", IsVerified: true}
	admin      = auth.Principal{UserID: "admin-1", IsAdmin: true, IsVerified: true}
)

// countingLinks 记录 Create 调用次数
type countingLinks struct {
	*repository.ShortLinkRepository
	creates atomic.Int32
}

func (c *countingLinks) Create(ctx context.Context, link *model.ShortLink) error {
	c.creates.Add(1)
	return c.ShortLinkRepository.Create(ctx, link)
}

type fixture struct {
	links     *countingLinks
	bookmarks *repository.BookmarkRepository
	whitelist *repository.WhitelistRepository
	daily     *repository.StatsRepository
	users     *repository.UserRepository
	mr        *miniredis.Miniredis
	recorder  *stats.RedisRecorder

	shortLinks  *ShortLinkService
	bookmarkSvc *BookmarkService
}

type fixtureOption func(*ShortLinkDeps)

func withWhitelist() fixtureOption {
	return func(d *ShortLinkDeps) { d.EnforceWhitelist = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db, err := repository.InitDB(config.DBConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	pool := &redis.Pool{
		MaxIdle: 4,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", mr.Addr())
		},
	}
	t.Cleanup(func() { _ = pool.Close() })

	f := &fixture{
		links:     &countingLinks{ShortLinkRepository: repository.NewShortLinkRepository(db)},
		bookmarks: repository.NewBookmarkRepository(db),
		whitelist: repository.NewWhitelistRepository(db),
		daily:     repository.NewStatsRepository(db),
		users:     repository.NewUserRepository(db),
		mr:        mr,
		recorder:  stats.NewRedisRecorder(pool, zap.NewNop()),
	}

	deps := ShortLinkDeps{
		Links:     f.links,
		Bookmarks: f.bookmarks,
		Whitelist: f.whitelist,
		Stats:     f.daily,
		Cache:     cache.NewRedisLinkCache(pool, time.Minute),
		Recorder:  f.recorder,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.shortLinks = NewShortLinkService(deps)
	f.bookmarkSvc = NewBookmarkService(f.bookmarks, f.links, nil)
	return f
}

func (f *fixture) createBookmark(t *testing.T, p auth.Principal, url string) *model.Bookmark {
	t.Helper()
	bm := &model.Bookmark{OwnerID: p.UserID, URL: url, Title: "bookmark"}
	require.NoError(t, f.bookmarks.Create(context.Background(), bm))
	return bm
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := apperrors.KindOf(err)
	require.True(t, ok, "untyped error: %v", err)
	require.Equal(t, kind, got, "error: %v", err)
}

// captureMailer 收集发送的验证邮件
type captureMailer struct {
	sent chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: make(chan string, 8)}
}

func (m *captureMailer) SendVerification(_ context.Context, to, link string) error {
	m.sent <- to + " " + link
	return nil
}

func (m *captureMailer) wait(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-m.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("verification email was not sent")
		return ""
	}
}
