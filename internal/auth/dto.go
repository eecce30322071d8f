package auth

import (
	"github.com/sdfoods/restaurant-backend/internal/users"
)

// RegisterRequest is the sign-up payload. New accounts are always customers.
type RegisterRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=80"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required"`
	Name        string  `json:"name" validate:"required,max=120"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	HomeAddress *string `json:"homeAddress,omitempty"`
}

// LoginRequest accepts either the username or the email as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}
