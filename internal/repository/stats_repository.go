package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shortmark/internal/model"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// UpsertDaily 按 (short_link_id, date) 写入或覆盖当日 PV/UV
func (r *StatsRepository) UpsertDaily(ctx context.Context, stat *model.DailyStat) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "short_link_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"pv", "uv", "updated_at"}),
		}).
		Create(stat).Error
}

// ListByShortLink 按日期倒序返回最近 limit 天的统计
func (r *StatsRepository) ListByShortLink(ctx context.Context, shortLinkID string, limit int) ([]model.DailyStat, error) {
	stats := []model.DailyStat{}
	db := r.db.WithContext(ctx).
		Where("short_link_id = ?", shortLinkID).
		Order("date DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteByShortLink 删除短链时清理统计
func (r *StatsRepository) DeleteByShortLink(ctx context.Context, shortLinkID string) error {
	return r.db.WithContext(ctx).Where("short_link_id = ?", shortLinkID).Delete(&model.DailyStat{}).Error
}
