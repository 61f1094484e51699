package entity

import (
	"database/sql"
	"time"
)

// User is the identity root. Token hash and expiry columns are written and
// cleared in pairs.
type User struct {
	ID                              uint64
	Email                           string
	Username                        string
	PasswordHash                    string
	FullName                        string
	IsEmailVerified                 bool
	RefreshTokenHash                sql.NullString
	EmailVerificationTokenHash      sql.NullString
	EmailVerificationTokenExpiresAt sql.NullTime
	ForgotPasswordTokenHash         sql.NullString
	ForgotPasswordTokenExpiresAt    sql.NullTime
	CreatedAt                       time.Time
	UpdatedAt                       time.Time
}

// Profile is the projection of User without any secret field.
type Profile struct {
	ID              uint64    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	FullName        string    `json:"full_name"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		FullName:        u.FullName,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
