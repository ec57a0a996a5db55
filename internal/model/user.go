package model

type User struct {
	BaseModel
	Email             string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name              string `gorm:"size:255" json:"name"`
	PasswordHash      string `gorm:"size:255;not null" json:"-"`
	IsAdmin           bool   `gorm:"not null;default:false" json:"isAdmin"`
	IsVerified        bool   `gorm:"not null;default:false" json:"isVerified"`
	VerificationToken string `gorm:"size:64;index" json:"-"`
}
