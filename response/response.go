package response

import (
	"time"
)

// Response 通用 API 响应结构
type Response[T any] struct {
	Success   bool   `json:"success"`
	Code      string `json:"code,omitempty"` // 失败时为错误分类，如 NotFound
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// PageResponse 分页响应结构体
type PageResponse[T any] struct {
	Page      int `json:"page"`
	Size      int `json:"size"`
	TotalPage int `json:"totalPage"`
	Total     int `json:"total"`
	List      []T `json:"list"`
}

// NewPage 根据总数计算总页数
func NewPage[T any](list []T, total int64, page, size int) *PageResponse[T] {
	if list == nil {
		list = []T{}
	}
	totalPage := 0
	if size > 0 {
		totalPage = (int(total) + size - 1) / size
	}
	return &PageResponse[T]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      list,
	}
}

// MapPage 转换分页中的元素类型
func MapPage[T, R any](p *PageResponse[T], fn func(T) R) *PageResponse[R] {
	list := make([]R, 0, len(p.List))
	for _, item := range p.List {
		list = append(list, fn(item))
	}
	return &PageResponse[R]{
		Page:      p.Page,
		Size:      p.Size,
		Total:     p.Total,
		TotalPage: p.TotalPage,
		List:      list,
	}
}

// OK 构造一个成功的响应
func OK[T any](data T, message string) *Response[T] {
	return &Response[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Error 构造一个失败的响应，code 为错误分类，message 为已本地化的文案
func Error(code, message string) *Response[any] {
	return &Response[any]{
		Success:   false,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
}
