package service

import "errors"

var (
	ErrUserExists             = errors.New("user already exists")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenInvalidOrExpired  = errors.New("token is invalid or has expired")
	ErrDeliveryFailed         = errors.New("email delivery failed")
	ErrSamePassword           = errors.New("new password must differ from the current password")
	ErrAccountAlreadyVerified = errors.New("email is already verified")
	ErrWeakPassword           = errors.New("password does not meet policy requirements")
	ErrForbidden              = errors.New("forbidden")
	ErrMemberExists           = errors.New("user is already a member of this project")
	ErrMemberNotFound         = errors.New("project member not found")
	ErrInvalidRole            = errors.New("invalid role")
)
