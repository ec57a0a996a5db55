package model

type DailyStat struct {
	BaseModel
	ShortLinkID string `gorm:"size:36;uniqueIndex:idx_daily_stat_link_date" json:"shortLinkId"`
	Date        string `gorm:"size:10;uniqueIndex:idx_daily_stat_link_date" json:"date"` // YYYY-MM-DD
	PV          int64  `gorm:"default:0" json:"pv"`
	UV          int64  `gorm:"default:0" json:"uv"`
}
