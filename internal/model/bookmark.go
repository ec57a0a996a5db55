package model

type Bookmark struct {
	BaseModel
	OwnerID     string     `gorm:"size:36;not null;index" json:"ownerId"`
	URL         string     `gorm:"size:2048;not null" json:"url"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"size:1024" json:"description"`
	ShortLink   *ShortLink `gorm:"foreignKey:LinkedBookmarkID" json:"shortLink,omitempty"`
}

// LinkedShortLinkID 返回关联短链的 ID，未关联时为空
func (b *Bookmark) LinkedShortLinkID() string {
	if b.ShortLink == nil {
		return ""
	}
	return b.ShortLink.ID
}
