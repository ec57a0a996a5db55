package model

type ShortLink struct {
	BaseModel
	Code             string  `gorm:"uniqueIndex;size:32;not null" json:"code"`
	TargetURL        string  `gorm:"size:2048;not null" json:"targetUrl"`
	OwnerID          string  `gorm:"size:36;not null;index" json:"ownerId"`
	ClickCount       int64   `gorm:"not null;default:0" json:"clickCount"`
	LinkedBookmarkID *string `gorm:"size:36;uniqueIndex" json:"linkedBookmarkId,omitempty"`
}

// IsLinked 是否已关联书签
func (s *ShortLink) IsLinked() bool {
	return s.LinkedBookmarkID != nil && *s.LinkedBookmarkID != ""
}
