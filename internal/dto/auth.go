package dto

import (
	"time"

	"github.com/noah-isme/seam-events-api/internal/models"
)

// RegisterRequest payload for creating an account.
type RegisterRequest struct {
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required"`
	Password string          `json:"password" validate:"required"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=teacher student"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse returns the issued access token and the authenticated profile.
type AuthResponse struct {
	AccessToken string          `json:"accessToken"`
	ExpiresIn   int64           `json:"expiresIn"`
	IssuedAt    time.Time       `json:"issuedAt"`
	User        models.UserInfo `json:"user"`
}

// MeResponse pairs the token's identity with the store's current session marker.
type MeResponse struct {
	User    models.UserInfo  `json:"user"`
	Session *models.UserInfo `json:"session"`
}
