package model

type WhitelistDomain struct {
	BaseModel
	Domain string `gorm:"size:255;uniqueIndex;not null" json:"domain"`
}
