package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("a user with this email already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrProfileNotFound   = errors.New("role profile not found")
	ErrUserBanned        = errors.New("account is banned")
	ErrAccountInactive   = errors.New("account has not been activated")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
