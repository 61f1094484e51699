package types

import (
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/entity"

	"github.com/labstack/echo/v4"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=16"`
	Password string `json:"password" validate:"required,max=72"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Username = strings.TrimSpace(body.Username)
	body.FullName = strings.TrimSpace(body.FullName)
	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	return validateStruct(r)
}

type RegisterResponse struct {
	UserID          uint64 `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	IsEmailVerified bool   `json:"is_email_verified"`
	Message         string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)
	return &body, nil
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	User         *entity.Profile `json:"user"`
}

// RefreshTokenRequest carries the presented refresh token. The controller
// fills it from the refresh cookie or the Authorization header.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,max=72"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

func NewChangePasswordRequestFromContext(ctx echo.Context) (*ChangePasswordRequest, error) {
	var body ChangePasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ChangePasswordRequest) Validate() error {
	return validateStruct(r)
}

type VerifyEmailRequest struct {
	Token string `param:"token" validate:"required,hexadecimal,max=128"`
}

func NewVerifyEmailRequestFromContext(ctx echo.Context) (*VerifyEmailRequest, error) {
	return &VerifyEmailRequest{Token: strings.TrimSpace(ctx.Param("token"))}, nil
}

func (r *VerifyEmailRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return errors.New("token is invalid")
	}
	return nil
}

// EmailRequest is the body shared by resend-verification and forgot-password.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func NewEmailRequestFromContext(ctx echo.Context) (*EmailRequest, error) {
	var body EmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)
	return &body, nil
}

func (r *EmailRequest) Validate() error {
	return validateStruct(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"-"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Token = strings.TrimSpace(ctx.Param("token"))
	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	if r.Token == "" {
		return errors.New("token is required")
	}
	return validateStruct(r)
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=16"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	if body.Username != nil {
		trimmed := strings.TrimSpace(*body.Username)
		body.Username = &trimmed
	}
	if body.FullName != nil {
		trimmed := strings.TrimSpace(*body.FullName)
		body.FullName = &trimmed
	}
	return &body, nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Username == nil && r.FullName == nil {
		return errors.New("username or full_name is required")
	}
	return validateStruct(r)
}

type MessageResponse struct {
	Message string `json:"message"`
}
