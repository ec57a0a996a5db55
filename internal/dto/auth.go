package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255" msg:"error.email_invalid"`
	Password string `json:"password" binding:"required,min=8,max=72" msg:"error.password_invalid"`
	Name     string `json:"name" binding:"max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
}
