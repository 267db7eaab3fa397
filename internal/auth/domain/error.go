package domain

import "errors"

var (
	ErrMissingToken  = errors.New("missing_token")
	ErrInvalidToken  = errors.New("invalid_token")
	ErrTokenExpired  = errors.New("token_expired")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrNotConfigured = errors.New("auth_not_configured")
)
