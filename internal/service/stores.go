package service

import (
	"context"

	"shortmark/internal/model"
)

// 服务层依赖的存储接口，由 repository 包实现

type ShortLinkStore interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
	FindByCode(ctx context.Context, code string) (*model.ShortLink, error)
	FindByID(ctx context.Context, id string) (*model.ShortLink, error)
	FindByOwnerAndURL(ctx context.Context, ownerID, targetURL string) (*model.ShortLink, error)
	Create(ctx context.Context, link *model.ShortLink) error
	Update(ctx context.Context, link *model.ShortLink, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	IncrementClicks(ctx context.Context, id string) error
	IncrementClicksIfCurrent(ctx context.Context, id, code, targetURL string) error
	AttachBookmark(ctx context.Context, linkID, bookmarkID string) error
	DetachBookmark(ctx context.Context, bookmarkID string) (int64, error)
	ListByOwner(ctx context.Context, ownerID string, page, size int) ([]model.ShortLink, int64, error)
	ListAll(ctx context.Context, page, size int) ([]model.ShortLink, int64, error)
}

type BookmarkStore interface {
	Create(ctx context.Context, bookmark *model.Bookmark) error
	FindByID(ctx context.Context, id string) (*model.Bookmark, error)
	ListByOwner(ctx context.Context, ownerID string, page, size int) ([]model.Bookmark, int64, error)
	Update(ctx context.Context, bookmark *model.Bookmark, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.User, error)
	Update(ctx context.Context, user *model.User, fields map[string]interface{}) error
}

type WhitelistStore interface {
	Create(ctx context.Context, domain *model.WhitelistDomain) error
	List(ctx context.Context, keyword string, page, size int) ([]model.WhitelistDomain, int64, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	ContainsHost(ctx context.Context, host string) (bool, error)
}

type DailyStatStore interface {
	UpsertDaily(ctx context.Context, stat *model.DailyStat) error
	ListByShortLink(ctx context.Context, shortLinkID string, limit int) ([]model.DailyStat, error)
	DeleteByShortLink(ctx context.Context, shortLinkID string) error
}

// LinkScanner 分批遍历全部短链
type LinkScanner interface {
	FindByID(ctx context.Context, id string) (*model.ShortLink, error)
	FindInBatches(ctx context.Context, batchSize int, fn func([]model.ShortLink) error) error
}
