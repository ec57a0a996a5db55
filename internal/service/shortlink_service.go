package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/cache"
	"shortmark/internal/dto"
	"shortmark/internal/model"
	"shortmark/internal/repository"
	"shortmark/internal/shortcode"
	"shortmark/internal/stats"
	"shortmark/pkg/utils"
	"shortmark/response"
)

type ShortLinkDeps struct {
	Links     ShortLinkStore
	Bookmarks BookmarkStore
	Whitelist WhitelistStore // 可为 nil
	Stats     DailyStatStore // 可为 nil
	Allocator *shortcode.Allocator
	Cache     cache.LinkCache
	Recorder  stats.Recorder
	Logger    *zap.Logger

	EnforceWhitelist bool
}

type ShortLinkService struct {
	links            ShortLinkStore
	bookmarks        BookmarkStore
	whitelist        WhitelistStore
	stats            DailyStatStore
	allocator        *shortcode.Allocator
	cache            cache.LinkCache
	recorder         stats.Recorder
	logger           *zap.Logger
	enforceWhitelist bool
}

func NewShortLinkService(deps ShortLinkDeps) *ShortLinkService {
	s := &ShortLinkService{
		links:            deps.Links,
		bookmarks:        deps.Bookmarks,
		whitelist:        deps.Whitelist,
		stats:            deps.Stats,
		allocator:        deps.Allocator,
		cache:            deps.Cache,
		recorder:         deps.Recorder,
		logger:           deps.Logger,
		enforceWhitelist: deps.EnforceWhitelist,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.allocator == nil {
		s.allocator = shortcode.NewAllocator(deps.Links, nil, s.logger)
	}
	if s.cache == nil {
		s.cache = cache.NopLinkCache{}
	}
	if s.recorder == nil {
		s.recorder = stats.NopRecorder{}
	}
	return s
}

// CreateShortURL 为任意 URL 创建短链，code 为空时自动生成
func (s *ShortLinkService) CreateShortURL(ctx context.Context, p auth.Principal, req dto.CreateShortURLRequest) (*model.ShortLink, error) {
	if err := auth.CanAccess(p, auth.ActionCreate, "", true); err != nil {
		return nil, err
	}
	if err := s.validateTarget(ctx, req.TargetURL); err != nil {
		return nil, err
	}
	if req.Code != "" {
		if err := utils.ValidateShortCode(req.Code); err != nil {
			return nil, apperrors.InvalidRequestError(err.Error())
		}
	}

	link := &model.ShortLink{
		TargetURL: req.TargetURL,
		OwnerID:   p.UserID,
	}
	if _, err := s.allocator.Reserve(ctx, req.Code, s.createFunc(link)); err != nil {
		s.logFailure("Failed to create short link", err,
			zap.String("owner_id", p.UserID),
			zap.String("requested_code", req.Code))
		return nil, err
	}

	s.evict(ctx, link.Code)
	s.logger.Info("Short link created",
		zap.String("id", link.ID),
		zap.String("short_code", link.Code),
		zap.String("owner_id", link.OwnerID))
	return link, nil
}

// createFunc 每次尝试都以新短码插入同一条记录，唯一约束冲突交给分配器重试
func (s *ShortLinkService) createFunc(link *model.ShortLink) shortcode.CreateFunc {
	return func(ctx context.Context, code string) error {
		link.ID = ""
		link.Code = code
		err := s.links.Create(ctx, link)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrDuplicateCode):
			return fmt.Errorf("%w: %v", shortcode.ErrCodeConflict, err)
		case errors.Is(err, repository.ErrDuplicateBookmark):
			return apperrors.AlreadyLinked()
		default:
			return err
		}
	}
}

// LinkBookmark 为书签关联短链：同一用户已有指向相同 URL 且未关联的短链时直接复用，否则新建
func (s *ShortLinkService) LinkBookmark(ctx context.Context, p auth.Principal, bookmarkID string) (*model.ShortLink, error) {
	if err := auth.CanAccess(p, auth.ActionCreate, "", true); err != nil {
		return nil, err
	}

	bookmark, err := s.bookmarks.FindByID(ctx, bookmarkID)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
		return nil, apperrors.NotFound(apperrors.MsgBookmarkNotFound)
	}
	if bookmark.OwnerID != p.UserID {
		return nil, apperrors.NotFound(apperrors.MsgBookmarkNotFound)
	}
	if bookmark.ShortLink != nil {
		return nil, apperrors.AlreadyLinked()
	}

	reused, err := s.reuseLink(ctx, bookmark)
	if err != nil || reused != nil {
		return reused, err
	}

	if err := s.validateTarget(ctx, bookmark.URL); err != nil {
		return nil, err
	}
	link := &model.ShortLink{
		TargetURL:        bookmark.URL,
		OwnerID:          bookmark.OwnerID,
		LinkedBookmarkID: &bookmark.ID,
	}
	if _, err := s.allocator.Reserve(ctx, "", s.createFunc(link)); err != nil {
		s.logFailure("Failed to create short link for bookmark", err,
			zap.String("bookmark_id", bookmark.ID))
		return nil, err
	}

	s.evict(ctx, link.Code)
	s.logger.Info("Bookmark linked to new short link",
		zap.String("bookmark_id", bookmark.ID),
		zap.String("short_code", link.Code))
	return link, nil
}

// reuseLink 返回 nil, nil 表示没有可复用的短链
func (s *ShortLinkService) reuseLink(ctx context.Context, bookmark *model.Bookmark) (*model.ShortLink, error) {
	existing, err := s.links.FindByOwnerAndURL(ctx, bookmark.OwnerID, bookmark.URL)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
		return nil, nil
	}
	if existing.IsLinked() {
		return nil, nil
	}

	err = s.links.AttachBookmark(ctx, existing.ID, bookmark.ID)
	switch {
	case err == nil:
		existing.LinkedBookmarkID = &bookmark.ID
		s.logger.Info("Bookmark linked to existing short link",
			zap.String("bookmark_id", bookmark.ID),
			zap.String("short_code", existing.Code))
		return existing, nil
	case errors.Is(err, repository.ErrDuplicateBookmark):
		return nil, apperrors.AlreadyLinked()
	case errors.Is(err, repository.ErrNotFound):
		// 并发下已被关联或删除，改为新建
		return nil, nil
	default:
		return nil, apperrors.SystemError(err)
	}
}

// UnlinkBookmark 解除书签与短链的关联，短链本身保留
func (s *ShortLinkService) UnlinkBookmark(ctx context.Context, p auth.Principal, bookmarkID string) (*model.ShortLink, error) {
	bookmark, err := s.bookmarks.FindByID(ctx, bookmarkID)
	exists := err == nil
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
	}
	ownerID := ""
	if exists {
		ownerID = bookmark.OwnerID
	}
	if err := authorize(p, auth.ActionUpdate, ownerID, exists, apperrors.MsgBookmarkNotFound); err != nil {
		return nil, err
	}
	if bookmark.ShortLink == nil {
		return nil, apperrors.NotFound(apperrors.MsgShortLinkNotFound)
	}

	if _, err := s.links.DetachBookmark(ctx, bookmark.ID); err != nil {
		return nil, apperrors.SystemError(err)
	}
	link := bookmark.ShortLink
	link.LinkedBookmarkID = nil
	return link, nil
}

// findLink 查询短链并做授权判断
func (s *ShortLinkService) findLink(ctx context.Context, p auth.Principal, action auth.Action, id string) (*model.ShortLink, error) {
	link, err := s.links.FindByID(ctx, id)
	exists := err == nil
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
	}
	ownerID := ""
	if exists {
		ownerID = link.OwnerID
	}
	if err := authorize(p, action, ownerID, exists, apperrors.MsgShortLinkNotFound); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *ShortLinkService) GetShortURL(ctx context.Context, p auth.Principal, id string) (*model.ShortLink, error) {
	return s.findLink(ctx, p, auth.ActionReadOwn, id)
}

// CheckExists 查询短码是否已存在；已存在时只有所有者和管理员可以查看
func (s *ShortLinkService) CheckExists(ctx context.Context, p auth.Principal, code string) (bool, error) {
	if !p.IsRegistered() {
		return false, apperrors.NotRegistered()
	}
	if err := utils.ValidateShortCode(code); err != nil {
		return false, apperrors.InvalidRequestError(err.Error())
	}

	link, err := s.links.FindByCode(ctx, code)
	exists := err == nil
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return false, appErr
		}
	}
	ownerID := ""
	if exists {
		ownerID = link.OwnerID
	}
	if err := auth.CanAccess(p, auth.ActionCheckExists, ownerID, exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListOwn 当前用户自己的短链
func (s *ShortLinkService) ListOwn(ctx context.Context, p auth.Principal, page, size int) (*response.PageResponse[model.ShortLink], error) {
	if err := auth.CanAccess(p, auth.ActionReadOwn, p.UserID, true); err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)
	links, total, err := s.links.ListByOwner(ctx, p.UserID, page, size)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	return response.NewPage(links, total, page, size), nil
}

// ListAll 管理员查看全部短链
func (s *ShortLinkService) ListAll(ctx context.Context, p auth.Principal, page, size int) (*response.PageResponse[model.ShortLink], error) {
	if err := auth.CanAccess(p, auth.ActionReadAny, "", true); err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)
	links, total, err := s.links.ListAll(ctx, page, size)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	return response.NewPage(links, total, page, size), nil
}

// UpdateShortURL 修改短码和/或目标地址，所有者不可修改
func (s *ShortLinkService) UpdateShortURL(ctx context.Context, p auth.Principal, id string, req dto.UpdateShortURLRequest) (*model.ShortLink, error) {
	link, err := s.findLink(ctx, p, auth.ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.TargetURL != nil && *req.TargetURL != link.TargetURL {
		if err := s.validateTarget(ctx, *req.TargetURL); err != nil {
			return nil, err
		}
		fields["target_url"] = *req.TargetURL
	}
	oldCode := link.Code
	if req.Code != nil && *req.Code != link.Code {
		if err := utils.ValidateShortCode(*req.Code); err != nil {
			return nil, apperrors.InvalidRequestError(err.Error())
		}
		if _, err := s.allocator.Allocate(ctx, *req.Code); err != nil {
			return nil, err
		}
		fields["code"] = *req.Code
	}
	if len(fields) == 0 {
		return link, nil
	}

	if err := s.links.Update(ctx, link, fields); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateCode):
			return nil, apperrors.CodeAlreadyTaken()
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound(apperrors.MsgShortLinkNotFound)
		default:
			s.logger.Error("Failed to update short link", zap.String("id", id), zap.Error(err))
			return nil, apperrors.SystemError(err)
		}
	}

	if v, ok := fields["target_url"].(string); ok {
		link.TargetURL = v
	}
	if v, ok := fields["code"].(string); ok {
		link.Code = v
	}
	s.evict(ctx, oldCode, link.Code)
	if oldCode != link.Code {
		if err := s.recorder.Rename(ctx, oldCode, link.Code); err != nil {
			s.logger.Warn("Failed to move click counters",
				zap.String("old_code", oldCode),
				zap.String("short_code", link.Code),
				zap.Error(err))
		}
	}
	s.logger.Info("Short link updated",
		zap.String("id", link.ID),
		zap.String("short_code", link.Code))
	return link, nil
}

// DeleteShortURL 永久删除短链及其统计数据
func (s *ShortLinkService) DeleteShortURL(ctx context.Context, p auth.Principal, id string) error {
	link, err := s.findLink(ctx, p, auth.ActionDelete, id)
	if err != nil {
		return err
	}

	if err := s.links.Delete(ctx, link.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(apperrors.MsgShortLinkNotFound)
		}
		s.logger.Error("Failed to delete short link", zap.String("id", id), zap.Error(err))
		return apperrors.SystemError(err)
	}

	s.evict(ctx, link.Code)
	if s.stats != nil {
		if err := s.stats.DeleteByShortLink(ctx, link.ID); err != nil {
			s.logger.Warn("Failed to delete daily stats", zap.String("id", link.ID), zap.Error(err))
		}
	}
	if err := s.recorder.Forget(ctx, link.Code); err != nil {
		s.logger.Warn("Failed to delete click counters", zap.String("short_code", link.Code), zap.Error(err))
	}

	s.logger.Info("Short link deleted",
		zap.String("id", link.ID),
		zap.String("short_code", link.Code),
		zap.String("by", p.UserID))
	return nil
}

// Resolve 公开的跳转解析：原子地把点击数加 1 并返回目标地址
func (s *ShortLinkService) Resolve(ctx context.Context, code, visitor string) (string, error) {
	if utils.ValidateShortCode(code) != nil {
		return "", apperrors.NotFound(apperrors.MsgShortLinkNotFound)
	}

	entry, hit, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.Warn("Error getting short link from cache", zap.String("short_code", code), zap.Error(err))
	}
	if hit {
		// 自增时校验缓存内容仍与记录一致
		err := s.links.IncrementClicksIfCurrent(ctx, entry.ID, code, entry.TargetURL)
		if err == nil {
			s.recorder.Record(ctx, code, visitor)
			return entry.TargetURL, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.SystemError(err)
		}
		// 缓存中的短链已被删除或修改，清掉后回源
		s.evict(ctx, code)
	}

	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return "", appErr
		}
		return "", apperrors.NotFound(apperrors.MsgShortLinkNotFound)
	}
	if err := s.links.IncrementClicks(ctx, link.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NotFound(apperrors.MsgShortLinkNotFound)
		}
		return "", apperrors.SystemError(err)
	}

	if err := s.cache.Set(ctx, code, cache.Entry{ID: link.ID, TargetURL: link.TargetURL}); err != nil {
		s.logger.Warn("Failed to cache short link", zap.String("short_code", code), zap.Error(err))
	}
	s.recorder.Record(ctx, code, visitor)
	return link.TargetURL, nil
}

// validateTarget 校验 URL 格式，开启白名单时还要求域名在白名单内（白名单为空时不限制）
func (s *ShortLinkService) validateTarget(ctx context.Context, targetURL string) error {
	if err := utils.ValidateTargetURL(targetURL); err != nil {
		return apperrors.InvalidRequestError(err.Error())
	}
	if !s.enforceWhitelist || s.whitelist == nil {
		return nil
	}

	count, err := s.whitelist.Count(ctx)
	if err != nil {
		return apperrors.SystemError(err)
	}
	if count == 0 {
		return nil
	}
	ok, err := s.whitelist.ContainsHost(ctx, utils.TargetHost(targetURL))
	if err != nil {
		return apperrors.SystemError(err)
	}
	if !ok {
		return apperrors.InvalidRequestError(apperrors.MsgDomainNotAllowed)
	}
	return nil
}

func (s *ShortLinkService) evict(ctx context.Context, codes ...string) {
	if err := s.cache.Delete(ctx, codes...); err != nil {
		s.logger.Warn("Failed to evict short link cache", zap.Strings("short_codes", codes), zap.Error(err))
	}
}

// logFailure 业务失败记 Warn，存储故障记 Error
func (s *ShortLinkService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if apperrors.IsKind(err, apperrors.KindStorage) {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}
