package constant

import (
	"fmt"
	"time"
)

const (
	BasePrefix = "shortlink:"
	Separator  = ":"
)

// Redis 键模板
const (
	LinkCache = BasePrefix + "code" + Separator + "%s"                  // shortlink:code:<code>
	DailyPV   = BasePrefix + "pv" + Separator + "%s"                    // shortlink:pv:yyyyMMdd -> hash(code -> pv)
	DailyUV   = BasePrefix + "uv" + Separator + "%s" + Separator + "%s" // shortlink:uv:yyyyMMdd:<code>
	TotalPV   = BasePrefix + "total_pv" + Separator + "%s"              // shortlink:total_pv:<code>
	TotalUV   = BasePrefix + "total_uv" + Separator + "%s"              // shortlink:total_uv:<code>
)

// DailyKeyTTL 每日计数保留 3 天，足够定时任务同步
const DailyKeyTTL = 3 * 24 * time.Hour

func GetLinkCacheKey(code string) string {
	return fmt.Sprintf(LinkCache, code)
}

// GetDateKey 日期键格式 yyyyMMdd
func GetDateKey(t time.Time) string {
	return t.Format("20060102")
}

func GetDailyPVKey(date string) string {
	return fmt.Sprintf(DailyPV, date)
}

func GetDailyUVKey(code, date string) string {
	return fmt.Sprintf(DailyUV, date, code)
}

func GetTotalPVKey(code string) string {
	return fmt.Sprintf(TotalPV, code)
}

func GetTotalUVKey(code string) string {
	return fmt.Sprintf(TotalUV, code)
}
