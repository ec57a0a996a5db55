package repository

import (
	"context"

	"gorm.io/gorm"

	"shortmark/internal/model"
)

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Create(ctx context.Context, bookmark *model.Bookmark) error {
	return r.db.WithContext(ctx).Omit("ShortLink").Create(bookmark).Error
}

// FindByID 查询书签并带出关联的短链
func (r *BookmarkRepository) FindByID(ctx context.Context, id string) (*model.Bookmark, error) {
	var bookmark model.Bookmark
	err := r.db.WithContext(ctx).
		Preload("ShortLink").
		Where("id = ?", id).
		First(&bookmark).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bookmark, nil
}

func (r *BookmarkRepository) ListByOwner(ctx context.Context, ownerID string, page, size int) ([]model.Bookmark, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Bookmark{}).
		Where("owner_id = ?", ownerID).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	bookmarks := []model.Bookmark{}
	if total == 0 {
		return bookmarks, 0, nil
	}
	err := db.
		Preload("ShortLink").
		Limit(size).
		Offset((page - 1) * size).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, 0, err
	}
	return bookmarks, total, nil
}

// Update 只更新 fields 中给出的列
func (r *BookmarkRepository) Update(ctx context.Context, bookmark *model.Bookmark, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(bookmark).Omit("ShortLink").Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
