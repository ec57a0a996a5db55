package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/dto"
	"shortmark/internal/model"
	"shortmark/internal/repository"
	"shortmark/pkg/utils"
	"shortmark/response"
)

// LinkDetacher 删除书签前解除短链关联
type LinkDetacher interface {
	DetachBookmark(ctx context.Context, bookmarkID string) (int64, error)
}

type BookmarkService struct {
	bookmarks BookmarkStore
	links     LinkDetacher
	logger    *zap.Logger
}

func NewBookmarkService(bookmarks BookmarkStore, links LinkDetacher, logger *zap.Logger) *BookmarkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookmarkService{bookmarks: bookmarks, links: links, logger: logger}
}

func (s *BookmarkService) Create(ctx context.Context, p auth.Principal, req dto.CreateBookmarkRequest) (*model.Bookmark, error) {
	if err := auth.CanAccess(p, auth.ActionCreate, "", true); err != nil {
		return nil, err
	}
	if err := utils.ValidateTargetURL(req.URL); err != nil {
		return nil, apperrors.InvalidRequestError(err.Error())
	}

	bookmark := &model.Bookmark{
		OwnerID:     p.UserID,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		s.logger.Error("Failed to create bookmark", zap.String("owner_id", p.UserID), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return bookmark, nil
}

func (s *BookmarkService) find(ctx context.Context, p auth.Principal, action auth.Action, id string) (*model.Bookmark, error) {
	bookmark, err := s.bookmarks.FindByID(ctx, id)
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
	if err := authorize(p, action, ownerID, exists, apperrors.MsgBookmarkNotFound); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *BookmarkService) Get(ctx context.Context, p auth.Principal, id string) (*model.Bookmark, error) {
	return s.find(ctx, p, auth.ActionReadOwn, id)
}

func (s *BookmarkService) List(ctx context.Context, p auth.Principal, page, size int) (*response.PageResponse[model.Bookmark], error) {
	if err := auth.CanAccess(p, auth.ActionReadOwn, p.UserID, true); err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)
	bookmarks, total, err := s.bookmarks.ListByOwner(ctx, p.UserID, page, size)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	return response.NewPage(bookmarks, total, page, size), nil
}

// Update 修改书签；已关联的短链不随 URL 变化
func (s *BookmarkService) Update(ctx context.Context, p auth.Principal, id string, req dto.UpdateBookmarkRequest) (*model.Bookmark, error) {
	bookmark, err := s.find(ctx, p, auth.ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.URL != nil && *req.URL != bookmark.URL {
		if err := utils.ValidateTargetURL(*req.URL); err != nil {
			return nil, apperrors.InvalidRequestError(err.Error())
		}
		fields["url"] = *req.URL
	}
	if req.Title != nil && *req.Title != bookmark.Title {
		fields["title"] = *req.Title
	}
	if req.Description != nil && *req.Description != bookmark.Description {
		fields["description"] = *req.Description
	}
	if len(fields) == 0 {
		return bookmark, nil
	}

	if err := s.bookmarks.Update(ctx, bookmark, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(apperrors.MsgBookmarkNotFound)
		}
		return nil, apperrors.SystemError(err)
	}
	if v, ok := fields["url"].(string); ok {
		bookmark.URL = v
	}
	if v, ok := fields["title"].(string); ok {
		bookmark.Title = v
	}
	if v, ok := fields["description"].(string); ok {
		bookmark.Description = v
	}
	return bookmark, nil
}

// Delete 先解除短链关联再删除书签，短链保留
func (s *BookmarkService) Delete(ctx context.Context, p auth.Principal, id string) error {
	bookmark, err := s.find(ctx, p, auth.ActionDelete, id)
	if err != nil {
		return err
	}

	if _, err := s.links.DetachBookmark(ctx, bookmark.ID); err != nil {
		return apperrors.SystemError(err)
	}
	if err := s.bookmarks.Delete(ctx, bookmark.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(apperrors.MsgBookmarkNotFound)
		}
		return apperrors.SystemError(err)
	}
	s.logger.Info("Bookmark deleted", zap.String("id", bookmark.ID), zap.String("by", p.UserID))
	return nil
}
