package common

import (
	"errors"
	"fmt"
)

// Callers should match these values with errors.Is; most are wrapped with
// additional context on the way up.
var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrDuplicateIdentifier = fmt.Errorf("%w: identifier already taken", ErrConflict)
	ErrTransientStore      = errors.New("store temporarily unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrWeakCredential  = errors.New("credential does not satisfy policy")

	// Account lifecycle errors.
	ErrAccountNotActive  = errors.New("account not active")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Authentication errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrRateLimited       = errors.New("too many failed attempts")
	ErrCorruptCredential = errors.New("corrupt credential")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session revoked")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
