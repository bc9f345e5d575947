package user

import (
	"errors"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"created_at"`
	RefreshToken *string   `json:"-"`
	Avatar       *string   `json:"avatar"`
	Confirmed    bool      `json:"-"`
}

var ErrNotFound = errors.New("user not found")
var ErrEmailAlreadyUsed = errors.New("email already registered")

type SignUpRequest struct {
	Username string `json:"username" binding:"required,max=16"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Login arrives form-encoded, OAuth2 password-grant style: the "username"
// field carries the account email.
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type RequestEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
