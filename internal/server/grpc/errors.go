package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/users/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is the ErrorInfo domain attached to every error status.
const ErrorDomain = "users.v1"

// Reasons carried in errdetails.ErrorInfo.
const (
	ReasonAuthenticationFailed = "AUTHENTICATION_FAILED"
	ReasonInvalidArgument      = "INVALID_ARGUMENT"
	ReasonWeakCredential       = "WEAK_CREDENTIAL"
	ReasonDuplicateIdentifier  = "DUPLICATE_IDENTIFIER"
	ReasonConflict             = "CONFLICT"
	ReasonNotFound             = "NOT_FOUND"
	ReasonAccountNotActive     = "ACCOUNT_NOT_ACTIVE"
	ReasonInvalidTransition    = "INVALID_TRANSITION"
	ReasonSessionExpired       = "SESSION_EXPIRED"
	ReasonSessionRevoked       = "SESSION_REVOKED"
	ReasonInvalidToken         = "INVALID_TOKEN"
	ReasonTokenExpired         = "TOKEN_EXPIRED"
	ReasonRateLimited          = "RATE_LIMITED"
	ReasonPermissionDenied     = "PERMISSION_DENIED"
	ReasonUnavailable          = "UNAVAILABLE"
	ReasonInternal             = "INTERNAL"
)

func statusError(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: ErrorDomain})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// toStatus maps a service error to a gRPC status.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, common.ErrWeakCredential):
		return statusError(codes.InvalidArgument, ReasonWeakCredential, err.Error())
	case errors.Is(err, common.ErrInvalidArgument):
		return statusError(codes.InvalidArgument, ReasonInvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateIdentifier):
		return statusError(codes.AlreadyExists, ReasonDuplicateIdentifier, "identifier already taken")
	case errors.Is(err, common.ErrConflict):
		return statusError(codes.Aborted, ReasonConflict, "concurrent modification, retry")
	case errors.Is(err, common.ErrSessionRevoked):
		return statusError(codes.Unauthenticated, ReasonSessionRevoked, "session revoked")
	case errors.Is(err, common.ErrSessionExpired):
		return statusError(codes.Unauthenticated, ReasonSessionExpired, "session expired")
	case errors.Is(err, common.ErrTokenExpired):
		return statusError(codes.Unauthenticated, ReasonTokenExpired, "access token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return statusError(codes.Unauthenticated, ReasonInvalidToken, "invalid access token")
	case errors.Is(err, common.ErrorNotFound):
		return statusError(codes.NotFound, ReasonNotFound, "not found")
	case errors.Is(err, common.ErrInvalidTransition):
		return statusError(codes.FailedPrecondition, ReasonInvalidTransition, err.Error())
	case errors.Is(err, common.ErrAccountNotActive):
		return statusError(codes.FailedPrecondition, ReasonAccountNotActive, "account is not active")
	case errors.Is(err, common.ErrInvalidCredential):
		return statusError(codes.Unauthenticated, ReasonAuthenticationFailed, "authentication failed")
	case errors.Is(err, common.ErrRateLimited):
		return statusError(codes.ResourceExhausted, ReasonRateLimited, "too many attempts")
	case errors.Is(err, common.ErrPermissionDenied):
		return statusError(codes.PermissionDenied, ReasonPermissionDenied, "permission denied")
	case errors.Is(err, common.ErrorUnauthorized):
		return statusError(codes.Unauthenticated, ReasonAuthenticationFailed, "unauthorized")
	case errors.Is(err, common.ErrTransientStore):
		return statusError(codes.Unavailable, ReasonUnavailable, "storage temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		return statusError(codes.Internal, ReasonInternal, "internal error")
	}
}

// authStatus maps errors at the authentication boundary. Every reason a
// caller could use to enumerate identifiers collapses into one response.
func authStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredential),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrAccountNotActive),
		errors.Is(err, common.ErrRateLimited),
		errors.Is(err, common.ErrInvalidArgument):
		return statusError(codes.Unauthenticated, ReasonAuthenticationFailed, "authentication failed")
	}
	return toStatus(err)
}

// resetStatus is toStatus with token messages that name the reset token
// rather than an access token.
func resetStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return statusError(codes.Unauthenticated, ReasonTokenExpired, "reset token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return statusError(codes.Unauthenticated, ReasonInvalidToken, "invalid or used reset token")
	}
	return toStatus(err)
}
