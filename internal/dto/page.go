package dto

// PageQuery 分页查询参数，超出范围时由服务层修正
type PageQuery struct {
	Page    int    `form:"page"`
	Size    int    `form:"size"`
	Keyword string `form:"keyword"`
}
