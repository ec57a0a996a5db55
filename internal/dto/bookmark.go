package dto

import (
	"time"

	"shortmark/internal/model"
)

type CreateBookmarkRequest struct {
	URL         string `json:"url" binding:"required,max=2048" msg:"error.target_url_invalid"`
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description" binding:"max=1024"`
}

type UpdateBookmarkRequest struct {
	URL         *string `json:"url" binding:"omitempty,max=2048" msg:"error.target_url_invalid"`
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=1024"`
}

type BookmarkResponse struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ShortLink   *ShortURLResponse `json:"shortLink,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func NewBookmarkResponse(b model.Bookmark, baseURL string) BookmarkResponse {
	resp := BookmarkResponse{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		URL:         b.URL,
		Title:       b.Title,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.ShortLink != nil {
		link := NewShortURLResponse(*b.ShortLink, baseURL)
		resp.ShortLink = &link
	}
	return resp
}
