package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shortmark/constant"
	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/model"
	"shortmark/internal/stats"
)

const (
	syncBatchSize  = 100
	statsHistory   = 30 // 返回最近 30 天
	statDateLayout = "2006-01-02"
)

// LinkStats 短链统计：数据库点击数 + redis 实时计数 + 每日历史
type LinkStats struct {
	ShortLinkID string            `json:"shortLinkId"`
	Code        string            `json:"code"`
	ClickCount  int64             `json:"clickCount"`
	Today       stats.Counts      `json:"today"`
	Daily       []model.DailyStat `json:"daily"`
}

type StatsService struct {
	links    LinkScanner
	store    DailyStatStore
	recorder stats.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewStatsService(links LinkScanner, store DailyStatStore, recorder stats.Recorder, logger *zap.Logger) *StatsService {
	if recorder == nil {
		recorder = stats.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{links: links, store: store, recorder: recorder, logger: logger, now: time.Now}
}

// GetStats 所有者或管理员查看短链统计
func (s *StatsService) GetStats(ctx context.Context, p auth.Principal, id string) (*LinkStats, error) {
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
	if err := authorize(p, auth.ActionReadOwn, ownerID, exists, apperrors.MsgShortLinkNotFound); err != nil {
		return nil, err
	}

	daily, err := s.store.ListByShortLink(ctx, link.ID, statsHistory)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	today, err := s.recorder.Counts(ctx, link.Code, constant.GetDateKey(s.now()))
	if err != nil {
		// redis 不可用时仍返回数据库中的统计
		s.logger.Warn("Failed to read live counters", zap.String("short_code", link.Code), zap.Error(err))
		today = stats.Counts{}
	}

	return &LinkStats{
		ShortLinkID: link.ID,
		Code:        link.Code,
		ClickCount:  link.ClickCount,
		Today:       today,
		Daily:       daily,
	}, nil
}

// SyncDailyStats 把 redis 中昨天和今天的 PV/UV 写入 daily_stats，由定时任务调用
func (s *StatsService) SyncDailyStats(ctx context.Context) error {
	if !s.recorder.Enabled() {
		return nil
	}
	start := s.now()
	s.logger.Info("SyncDailyStats start")

	days := []time.Time{start.AddDate(0, 0, -1), start}
	var synced, failed int
	err := s.links.FindInBatches(ctx, syncBatchSize, func(batch []model.ShortLink) error {
		for _, link := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, day := range days {
				if s.syncLink(ctx, link, day) {
					synced++
				} else {
					failed++
				}
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("SyncDailyStats aborted", zap.Error(err))
		return err
	}

	s.logger.Info("SyncDailyStats end",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// syncLink 同步单条短链某一天的数据，没有访问时跳过
func (s *StatsService) syncLink(ctx context.Context, link model.ShortLink, day time.Time) bool {
	counts, err := s.recorder.Counts(ctx, link.Code, constant.GetDateKey(day))
	if err != nil {
		s.logger.Error("Failed to read daily counters",
			zap.String("short_code", link.Code),
			zap.Error(err))
		return false
	}
	if counts.DailyPV == 0 && counts.DailyUV == 0 {
		return true
	}

	stat := &model.DailyStat{
		ShortLinkID: link.ID,
		Date:        day.Format(statDateLayout),
		PV:          counts.DailyPV,
		UV:          counts.DailyUV,
	}
	if err := s.store.UpsertDaily(ctx, stat); err != nil {
		s.logger.Error("Failed to insert or update daily stat",
			zap.String("short_link_id", link.ID),
			zap.String("date", stat.Date),
			zap.Int64("pv", stat.PV),
			zap.Int64("uv", stat.UV),
			zap.Error(err))
		return false
	}
	return true
}
