package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"shortmark/internal/model"
)

type WhitelistRepository struct {
	db *gorm.DB
}

func NewWhitelistRepository(db *gorm.DB) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

func (r *WhitelistRepository) Create(ctx context.Context, domain *model.WhitelistDomain) error {
	if err := r.db.WithContext(ctx).Create(domain).Error; err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("whitelist domain: %w", ErrDuplicateKey)
		}
		return err
	}
	return nil
}

// List 分页查询白名单，keyword 非空时按域名模糊匹配
func (r *WhitelistRepository) List(ctx context.Context, keyword string, page, size int) ([]model.WhitelistDomain, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.WhitelistDomain{})
	if keyword != "" {
		db = db.Where("domain LIKE ?", "%"+keyword+"%")
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	domains := []model.WhitelistDomain{}
	if total == 0 {
		return domains, 0, nil
	}
	err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("domain").
		Find(&domains).Error
	if err != nil {
		return nil, 0, err
	}
	return domains, total, nil
}

func (r *WhitelistRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.WhitelistDomain{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WhitelistRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.WhitelistDomain{}).Count(&total).Error
	return total, err
}

// ContainsHost 判断 host 本身或其任一上级域名是否在白名单中
func (r *WhitelistRepository) ContainsHost(ctx context.Context, host string) (bool, error) {
	candidates := parentDomains(host)
	if len(candidates) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WhitelistDomain{}).
		Where("domain IN ?", candidates).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// parentDomains: "a.b.example.com" -> [a.b.example.com b.example.com example.com]
func parentDomains(host string) []string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return nil
	}
	var out []string
	for {
		out = append(out, host)
		i := strings.IndexByte(host, '.')
		if i < 0 || !strings.Contains(host[i+1:], ".") {
			break
		}
		host = host[i+1:]
	}
	return out
}
