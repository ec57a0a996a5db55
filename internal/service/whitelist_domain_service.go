package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/model"
	"shortmark/internal/repository"
	"shortmark/pkg/utils"
	"shortmark/response"
)

// WhitelistService 目标域名白名单，仅管理员可操作
type WhitelistService struct {
	store  WhitelistStore
	logger *zap.Logger
}

func NewWhitelistService(store WhitelistStore, logger *zap.Logger) *WhitelistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhitelistService{store: store, logger: logger}
}

func requireAdmin(p auth.Principal) error {
	return auth.CanAccess(p, auth.ActionReadAny, "", true)
}

// Create 创建白名单域名
func (s *WhitelistService) Create(ctx context.Context, p auth.Principal, domain string) (*model.WhitelistDomain, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	normalized, err := utils.NormalizeDomain(domain)
	if err != nil {
		return nil, apperrors.InvalidRequestError(err.Error())
	}

	entry := &model.WhitelistDomain{Domain: normalized}
	if err := s.store.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.Conflict(apperrors.MsgDomainExists)
		}
		s.logger.Error("Failed to create whitelist domain", zap.String("domain", normalized), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	s.logger.Info("Whitelist domain created", zap.String("domain", normalized), zap.String("by", p.UserID))
	return entry, nil
}

// List 支持分页和关键字查询
func (s *WhitelistService) List(ctx context.Context, p auth.Principal, keyword string, page, size int) (*response.PageResponse[model.WhitelistDomain], error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)
	domains, total, err := s.store.List(ctx, keyword, page, size)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	return response.NewPage(domains, total, page, size), nil
}

// Delete 删除白名单域名
func (s *WhitelistService) Delete(ctx context.Context, p auth.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("")
		}
		return apperrors.SystemError(err)
	}
	return nil
}
