package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shortmark/internal/model"
)

type ShortLinkRepository struct {
	db *gorm.DB
}

func NewShortLinkRepository(db *gorm.DB) *ShortLinkRepository {
	return &ShortLinkRepository{db: db}
}

// classifyShortLinkErr 把唯一约束冲突区分为短码冲突和书签冲突
func classifyShortLinkErr(err error) error {
	if !IsUniqueViolation(err) {
		return err
	}
	if violatedColumn(err, "linked_bookmark_id") != "" {
		return fmt.Errorf("%w: %v", ErrDuplicateBookmark, err)
	}
	return fmt.Errorf("%w: %v", ErrDuplicateCode, err)
}

func (r *ShortLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ShortLinkRepository) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		return nil, notFound(err)
	}
	return &link, nil
}

func (r *ShortLinkRepository) FindByID(ctx context.Context, id string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, notFound(err)
	}
	return &link, nil
}

// FindByOwnerAndURL 查找同一用户指向同一 URL 的短链，优先返回未关联书签的那一条
func (r *ShortLinkRepository) FindByOwnerAndURL(ctx context.Context, ownerID, targetURL string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND target_url = ?", ownerID, targetURL).
		Order("CASE WHEN linked_bookmark_id IS NULL THEN 0 ELSE 1 END").
		Order("created_at").
		First(&link).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &link, nil
}

func (r *ShortLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return classifyShortLinkErr(err)
	}
	return nil
}

// Update 只更新 fields 中给出的列
func (r *ShortLinkRepository) Update(ctx context.Context, link *model.ShortLink, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(link).Updates(fields)
	if result.Error != nil {
		return classifyShortLinkErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ShortLinkRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ShortLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClicks 在数据库中原子自增点击数，避免并发下丢失更新
func (r *ShortLinkRepository) IncrementClicks(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClicksIfCurrent 只有记录的短码和目标地址仍与 code、targetURL 一致时才自增；
// 不一致（记录被修改或删除）返回 ErrNotFound
func (r *ShortLinkRepository) IncrementClicksIfCurrent(ctx context.Context, id, code, targetURL string) error {
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("id = ? AND code = ? AND target_url = ?", id, code, targetURL).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachBookmark 将未关联的短链关联到书签
func (r *ShortLinkRepository) AttachBookmark(ctx context.Context, linkID, bookmarkID string) error {
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("id = ? AND linked_bookmark_id IS NULL", linkID).
		Update("linked_bookmark_id", bookmarkID)
	if result.Error != nil {
		return classifyShortLinkErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachBookmark 解除书签上的短链关联，返回受影响的行数
func (r *ShortLinkRepository) DetachBookmark(ctx context.Context, bookmarkID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("linked_bookmark_id = ?", bookmarkID).
		Update("linked_bookmark_id", nil)
	return result.RowsAffected, result.Error
}

func (r *ShortLinkRepository) ListByOwner(ctx context.Context, ownerID string, page, size int) ([]model.ShortLink, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.ShortLink{}).Where("owner_id = ?", ownerID), page, size)
}

func (r *ShortLinkRepository) ListAll(ctx context.Context, page, size int) ([]model.ShortLink, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.ShortLink{}), page, size)
}

func (r *ShortLinkRepository) list(_ context.Context, db *gorm.DB, page, size int) ([]model.ShortLink, int64, error) {
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	links := []model.ShortLink{}
	if total == 0 {
		return links, 0, nil
	}
	err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// FindInBatches 分批遍历全部短链（统计同步使用）
func (r *ShortLinkRepository) FindInBatches(ctx context.Context, batchSize int, fn func([]model.ShortLink) error) error {
	var batch []model.ShortLink
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}
