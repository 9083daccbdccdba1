package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is an account as the identity provider reports it.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a row in the users table kept by the local identity driver.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Identity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt}
}

// Session is what a successful password login hands back.
type Session struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *Identity `json:"user"`
}

// Profile is a row in the profiles table, keyed by identity id.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// SendCodeRequest is the JSON body for POST /api/send-code.
type SendCodeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
}

// RegisterRequest is the JSON body for POST /api/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SendResetCodeRequest is the JSON body for POST /api/password/send-reset-code.
type SendResetCodeRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetPasswordRequest is the JSON body for POST /api/password/reset.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// MagicLinkRequest is the JSON body for POST /api/auth/magic-link.
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required"`
}

// LoginRequest is the JSON body for both password login routes.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
