package auth

import (
	"github.com/google/uuid"
)

// User is the account view returned by auth flows.
type User struct {
	ID          uuid.UUID `json:"user_id"`
	Email       *string   `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	UserType    string    `json:"user_type"`
	IsGuest     bool      `json:"is_guest"`
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GuestRequest creates a credential-less account that can play and rank.
type GuestRequest struct {
	DisplayName string `json:"display_name"`
}

// ConvertGuestRequest upgrades the calling guest to a registered account.
type ConvertGuestRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
