package service

import (
	"errors"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// normalizePage 修正分页参数：默认每页 10 条，最多 100 条
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

// authorize 调用授权判定，并把通用的 NotFound 替换为具体资源的消息
func authorize(p auth.Principal, action auth.Action, ownerID string, exists bool, notFoundMsg string) error {
	err := auth.CanAccess(p, action, ownerID, exists)
	if err != nil && apperrors.IsKind(err, apperrors.KindNotFound) {
		return apperrors.NotFound(notFoundMsg)
	}
	return err
}

// lookupError 区分“不存在”和存储故障
func lookupError(err error) (missing bool, appErr error) {
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	return false, apperrors.SystemError(err)
}
