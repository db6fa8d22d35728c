package models

import "time"

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID           int      `json:"id" db:"id"`
	FirstName    string   `json:"first_name" db:"first_name"`
	LastName     string   `json:"last_name" db:"last_name"`
	Email        string   `json:"email" db:"email"`
	PasswordHash string   `json:"-" db:"password_hash"`
	Role         UserRole `json:"role" db:"role"`

	EmailConfirmed         bool       `json:"email_confirmed" db:"email_confirmed"`
	EmailConfirmationToken *string    `json:"-" db:"email_confirmation_token"`
	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
