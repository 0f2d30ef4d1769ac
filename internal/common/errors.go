// Package common defines shared constants and sentinel errors used across
// client and server layers of taskboard. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// ErrInvalidToken is returned by the token codec for any token it refuses:
	// bad signature, malformed, expired, unexpected algorithm or wrong kind.
	ErrInvalidToken = errors.New("invalid token")

	// session errors
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken is reported when a refresh token cannot be decoded.
	// It also matches ErrInvalidCredentials.
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token: %w", ErrInvalidCredentials)

	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshRevoked  = errors.New("refresh token revoked")
	ErrRefreshExpired  = errors.New("refresh token expired")
)
