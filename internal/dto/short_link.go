package dto

import (
	"time"

	"shortmark/internal/model"
)

// CreateShortURLRequest code 为空时自动生成 7 位短码
type CreateShortURLRequest struct {
	TargetURL string `json:"targetUrl" binding:"required,max=2048" msg:"error.target_url_invalid"`
	Code      string `json:"code" binding:"omitempty,shortcode" msg:"error.shortcode_invalid"`
}

// UpdateShortURLRequest 只更新非 nil 的字段
type UpdateShortURLRequest struct {
	TargetURL *string `json:"targetUrl" binding:"omitempty,max=2048" msg:"error.target_url_invalid"`
	Code      *string `json:"code" binding:"omitempty,shortcode" msg:"error.shortcode_invalid"`
}

type ShortURLResponse struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	ShortURL         string    `json:"shortUrl"`
	TargetURL        string    `json:"targetUrl"`
	OwnerID          string    `json:"ownerId"`
	ClickCount       int64     `json:"clickCount"`
	LinkedBookmarkID *string   `json:"linkedBookmarkId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewShortURLResponse baseURL 形如 http://localhost:8080
func NewShortURLResponse(link model.ShortLink, baseURL string) ShortURLResponse {
	return ShortURLResponse{
		ID:               link.ID,
		Code:             link.Code,
		ShortURL:         ShortURL(baseURL, link.Code),
		TargetURL:        link.TargetURL,
		OwnerID:          link.OwnerID,
		ClickCount:       link.ClickCount,
		LinkedBookmarkID: link.LinkedBookmarkID,
		CreatedAt:        link.CreatedAt,
		UpdatedAt:        link.UpdatedAt,
	}
}

func ShortURL(baseURL, code string) string {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return baseURL + "/s/" + code
}

type ExistsResponse struct {
	Code   string `json:"code"`
	Exists bool   `json:"exists"`
}
