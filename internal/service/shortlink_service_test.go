package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortmark/constant"
	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/cache"
	"shortmark/internal/dto"
	"shortmark/internal/model"
	"shortmark/internal/shortcode"
	"shortmark/internal/stats"
)

func strPtr(s string) *string { return &s }

func TestShortLinkLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/page"})
	require.NoError(t, err)
	assert.Len(t, link.Code, shortcode.CodeLength)
	assert.Equal(t, owner.UserID, link.OwnerID)
	assert.Zero(t, link.ClickCount)

	target, err := f.shortLinks.Resolve(ctx, link.Code, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", target)
	got, err := f.shortLinks.GetShortURL(ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClickCount)

	target, err = f.shortLinks.Resolve(ctx, link.Code, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", target)
	got, err = f.shortLinks.GetShortURL(ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClickCount)

	requireKind(t, f.shortLinks.DeleteShortURL(ctx, stranger, link.ID), apperrors.KindForbidden)
	require.NoError(t, f.shortLinks.DeleteShortURL(ctx, owner, link.ID))

	_, err = f.shortLinks.Resolve(ctx, link.Code, "10.0.0.1")
	requireKind(t, err, apperrors.KindNotFound)
}

func TestResolve_ConcurrentClicksAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.shortLinks.Resolve(ctx, link.Code, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.shortLinks.GetShortURL(ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ClickCount)
}

func TestResolve_UnknownOrMalformedCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shortLinks.Resolve(ctx, "missing", "")
	requireKind(t, err, apperrors.KindNotFound)
	_, err = f.shortLinks.Resolve(ctx, "bad/code", "")
	requireKind(t, err, apperrors.KindNotFound)
}

func TestResolve_StaleCacheEntryFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "stale01"})
	require.NoError(t, err)

	// 缓存指向一条已不存在的记录
	require.NoError(t, f.shortLinks.cache.Set(ctx, "stale01", cache.Entry{ID: "gone", TargetURL: "https://old.example"}))

	target, err := f.shortLinks.Resolve(ctx, "stale01", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)

	got, err := f.shortLinks.GetShortURL(ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClickCount)
}

func TestResolve_OutdatedCacheEntryAfterUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/old", Code: "race001"})
	require.NoError(t, err)
	_, err = f.shortLinks.UpdateShortURL(ctx, owner, link.ID, dto.UpdateShortURLRequest{TargetURL: strPtr("https://example.com/new")})
	require.NoError(t, err)

	// 并发解析在修改提交后回写了旧目标
	require.NoError(t, f.shortLinks.cache.Set(ctx, "race001", cache.Entry{ID: link.ID, TargetURL: "https://example.com/old"}))

	target, err := f.shortLinks.Resolve(ctx, "race001", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", target)

	entry, hit, err := f.shortLinks.cache.Get(ctx, "race001")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "https://example.com/new", entry.TargetURL)

	got, err := f.shortLinks.GetShortURL(ctx, owner, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClickCount)
}

func TestResolve_RecordsStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "stats01"})
	require.NoError(t, err)

	for _, ip := range []string{"1.1.1.1", "1.1.1.1", "2.2.2.2"} {
		_, err := f.shortLinks.Resolve(ctx, "stats01", ip)
		require.NoError(t, err)
	}
	assert.Equal(t, "3", mustGet(t, f, constant.GetTotalPVKey("stats01")))
	assert.True(t, f.mr.Exists(constant.GetLinkCacheKey("stats01")))
}

func mustGet(t *testing.T, f *fixture, key string) string {
	t.Helper()
	v, err := f.mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestCreateShortURL_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := dto.CreateShortURLRequest{TargetURL: "https://example.com"}

	_, err := f.shortLinks.CreateShortURL(ctx, auth.Anonymous, req)
	requireKind(t, err, apperrors.KindNotRegistered)
	_, err = f.shortLinks.CreateShortURL(ctx, unverified, req)
	requireKind(t, err, apperrors.KindNotVerified)
	_, err = f.shortLinks.CreateShortURL(ctx, auth.Principal{UserID: "a", IsAdmin: true}, req)
	requireKind(t, err, apperrors.KindNotVerified)
	assert.Zero(t, f.links.creates.Load())
}

func TestCreateShortURL_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "not a url"})
	requireKind(t, err, apperrors.KindInvalidInput)
	_, err = f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "has space"})
	requireKind(t, err, apperrors.KindInvalidInput)
}

func TestCreateShortURL_RequestedCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "MyCode"})
	require.NoError(t, err)
	assert.Equal(t, "MyCode", link.Code)

	_, err = f.shortLinks.CreateShortURL(ctx, stranger, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "MyCode"})
	requireKind(t, err, apperrors.KindCodeAlreadyTaken)

	// 区分大小写
	_, err = f.shortLinks.CreateShortURL(ctx, stranger, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "mycode"})
	require.NoError(t, err)
}

func TestCreateShortURL_ConcurrentSameRequestedCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "race001"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireKind(t, err, apperrors.KindCodeAlreadyTaken)
	}
	assert.Equal(t, 1, ok)
}

func TestCreateShortURL_Whitelist(t *testing.T) {
	f := newFixture(t, withWhitelist())
	ctx := context.Background()

	// 白名单为空时不限制
	_, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://anything.example"})
	require.NoError(t, err)

	require.NoError(t, f.whitelist.Create(ctx, &model.WhitelistDomain{Domain: "example.com"}))

	_, err = f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://www.example.com/x"})
	require.NoError(t, err)

	_, err = f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://evil.test/x"})
	requireKind(t, err, apperrors.KindInvalidInput)
	assert.Equal(t, apperrors.MsgDomainNotAllowed, err.(*apperrors.AppError).Message)
}

func TestLinkBookmark_ReusesExistingLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/doc"})
	require.NoError(t, err)
	require.Equal(t, int32(1), f.links.creates.Load())

	bm := f.createBookmark(t, owner, "https://example.com/doc")
	link, err := f.shortLinks.LinkBookmark(ctx, owner, bm.ID)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, link.ID)
	require.NotNil(t, link.LinkedBookmarkID)
	assert.Equal(t, bm.ID, *link.LinkedBookmarkID)
	assert.Equal(t, int32(1), f.links.creates.Load(), "reuse path must not create a short link")

	got, err := f.bookmarks.FindByID(ctx, bm.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.LinkedShortLinkID())
}

func TestLinkBookmark_AllocatesWhenNoReusableLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createBookmark(t, owner, "https://example.com/same")
	second := f.createBookmark(t, owner, "https://example.com/same")

	a, err := f.shortLinks.LinkBookmark(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Len(t, a.Code, shortcode.CodeLength)

	// 已有的同 URL 短链已关联到 first，不能复用
	b, err := f.shortLinks.LinkBookmark(ctx, owner, second.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int32(2), f.links.creates.Load())

	// 别人的同 URL 短链也不能复用
	other := f.createBookmark(t, stranger, "https://example.com/same")
	c, err := f.shortLinks.LinkBookmark(ctx, stranger, other.ID)
	require.NoError(t, err)
	assert.Equal(t, stranger.UserID, c.OwnerID)
}

func TestLinkBookmark_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bm := f.createBookmark(t, owner, "https://example.com")

	_, err := f.shortLinks.LinkBookmark(ctx, auth.Anonymous, bm.ID)
	requireKind(t, err, apperrors.KindNotRegistered)
	_, err = f.shortLinks.LinkBookmark(ctx, unverified, bm.ID)
	requireKind(t, err, apperrors.KindNotVerified)

	_, err = f.shortLinks.LinkBookmark(ctx, owner, "missing")
	requireKind(t, err, apperrors.KindNotFound)
	assert.Equal(t, apperrors.MsgBookmarkNotFound, err.(*apperrors.AppError).Message)

	_, err = f.shortLinks.LinkBookmark(ctx, stranger, bm.ID)
	requireKind(t, err, apperrors.KindNotFound)

	_, err = f.shortLinks.LinkBookmark(ctx, owner, bm.ID)
	require.NoError(t, err)
	_, err = f.shortLinks.LinkBookmark(ctx, owner, bm.ID)
	requireKind(t, err, apperrors.KindAlreadyLinked)
}

func TestUnlinkBookmark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bm := f.createBookmark(t, owner, "https://example.com")

	_, err := f.shortLinks.UnlinkBookmark(ctx, owner, bm.ID)
	requireKind(t, err, apperrors.KindNotFound)

	link, err := f.shortLinks.LinkBookmark(ctx, owner, bm.ID)
	require.NoError(t, err)

	_, err = f.shortLinks.UnlinkBookmark(ctx, stranger, bm.ID)
	requireKind(t, err, apperrors.KindForbidden)

	unlinked, err := f.shortLinks.UnlinkBookmark(ctx, owner, bm.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, unlinked.ID)
	assert.False(t, unlinked.IsLinked())

	// 解除后可以重新关联，并复用同一条短链
	relinked, err := f.shortLinks.LinkBookmark(ctx, owner, bm.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, relinked.ID)
}

func TestUpdateShortURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/a", Code: "upd0001"})
	require.NoError(t, err)
	_, err = f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/b", Code: "taken01"})
	require.NoError(t, err)

	// 先解析一次让缓存生效
	_, err = f.shortLinks.Resolve(ctx, "upd0001", "")
	require.NoError(t, err)

	_, err = f.shortLinks.UpdateShortURL(ctx, stranger, link.ID, dto.UpdateShortURLRequest{TargetURL: strPtr("https://x.example")})
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.shortLinks.UpdateShortURL(ctx, owner, link.ID, dto.UpdateShortURLRequest{TargetURL: strPtr("nope")})
	requireKind(t, err, apperrors.KindInvalidInput)
	_, err = f.shortLinks.UpdateShortURL(ctx, owner, link.ID, dto.UpdateShortURLRequest{Code: strPtr("taken01")})
	requireKind(t, err, apperrors.KindCodeAlreadyTaken)
	_, err = f.shortLinks.UpdateShortURL(ctx, owner, "missing", dto.UpdateShortURLRequest{Code: strPtr("fresh01")})
	requireKind(t, err, apperrors.KindNotFound)

	updated, err := f.shortLinks.UpdateShortURL(ctx, owner, link.ID, dto.UpdateShortURLRequest{
		TargetURL: strPtr("https://example.com/new"),
		Code:      strPtr("fresh01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh01", updated.Code)
	assert.Equal(t, "https://example.com/new", updated.TargetURL)
	assert.Equal(t, owner.UserID, updated.OwnerID)

	_, err = f.shortLinks.Resolve(ctx, "upd0001", "")
	requireKind(t, err, apperrors.KindNotFound)
	target, err := f.shortLinks.Resolve(ctx, "fresh01", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", target)

	// 管理员可以修改别人的短链
	_, err = f.shortLinks.UpdateShortURL(ctx, admin, link.ID, dto.UpdateShortURLRequest{TargetURL: strPtr("https://example.com/admin")})
	require.NoError(t, err)
}

func TestUpdateShortURL_CodeChangeMovesCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := constant.GetDateKey(time.Now())

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/a", Code: "reuse01"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.shortLinks.Resolve(ctx, "reuse01", "1.1.1.1")
		require.NoError(t, err)
	}

	_, err = f.shortLinks.UpdateShortURL(ctx, owner, link.ID, dto.UpdateShortURLRequest{Code: strPtr("renamed1")})
	require.NoError(t, err)

	renamed, err := f.recorder.Counts(ctx, "renamed1", today)
	require.NoError(t, err)
	assert.Equal(t, int64(3), renamed.TotalPV)
	assert.Equal(t, int64(1), renamed.TotalUV)

	// 释放出来的短码被别人重新使用时不继承旧计数
	fresh, err := f.shortLinks.CreateShortURL(ctx, stranger, dto.CreateShortURLRequest{TargetURL: "https://example.com/b", Code: "reuse01"})
	require.NoError(t, err)
	assert.Zero(t, fresh.ClickCount)
	counts, err := f.recorder.Counts(ctx, "reuse01", today)
	require.NoError(t, err)
	assert.Equal(t, stats.Counts{}, counts)
}

func TestGetAndListPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com/1"})
	require.NoError(t, err)
	_, err = f.shortLinks.CreateShortURL(ctx, stranger, dto.CreateShortURLRequest{TargetURL: "https://example.com/2"})
	require.NoError(t, err)

	_, err = f.shortLinks.GetShortURL(ctx, stranger, mine.ID)
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.shortLinks.GetShortURL(ctx, unverified, mine.ID)
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.shortLinks.GetShortURL(ctx, auth.Anonymous, mine.ID)
	requireKind(t, err, apperrors.KindNotRegistered)
	_, err = f.shortLinks.GetShortURL(ctx, owner, "missing")
	requireKind(t, err, apperrors.KindNotFound)
	_, err = f.shortLinks.GetShortURL(ctx, admin, mine.ID)
	require.NoError(t, err)

	page, err := f.shortLinks.ListOwn(ctx, owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 10, page.Size)
	require.Len(t, page.List, 1)
	assert.Equal(t, mine.ID, page.List[0].ID)

	_, err = f.shortLinks.ListAll(ctx, owner, 1, 10)
	requireKind(t, err, apperrors.KindForbidden)
	all, err := f.shortLinks.ListAll(ctx, admin, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
}

func TestCheckExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "exist01"})
	require.NoError(t, err)

	ok, err := f.shortLinks.CheckExists(ctx, owner, "exist01")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.shortLinks.CheckExists(ctx, admin, "exist01")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.shortLinks.CheckExists(ctx, stranger, "exist01")
	requireKind(t, err, apperrors.KindForbidden)

	ok, err = f.shortLinks.CheckExists(ctx, stranger, "free001")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.shortLinks.CheckExists(ctx, unverified, "free001")
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.shortLinks.CheckExists(ctx, auth.Anonymous, "free001")
	requireKind(t, err, apperrors.KindNotRegistered)
}

func TestDeleteShortURL_AdminAndCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.shortLinks.CreateShortURL(ctx, owner, dto.CreateShortURLRequest{TargetURL: "https://example.com", Code: "del0001"})
	require.NoError(t, err)
	_, err = f.shortLinks.Resolve(ctx, "del0001", "1.1.1.1")
	require.NoError(t, err)
	require.NoError(t, f.daily.UpsertDaily(ctx, &model.DailyStat{ShortLinkID: link.ID, Date: "2026-10-15", PV: 1, UV: 1}))

	require.NoError(t, f.shortLinks.DeleteShortURL(ctx, admin, link.ID))

	assert.False(t, f.mr.Exists(constant.GetLinkCacheKey("del0001")))
	assert.False(t, f.mr.Exists(constant.GetTotalPVKey("del0001")))
	daily, err := f.daily.ListByShortLink(ctx, link.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, daily)

	requireKind(t, f.shortLinks.DeleteShortURL(ctx, admin, link.ID), apperrors.KindNotFound)
}
