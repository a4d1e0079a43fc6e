package grpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	pb "github.com/dmitrijs2005/users/internal/proto"
	"github.com/dmitrijs2005/users/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

const callerKey ctxKey = "caller"

// caller is the authenticated principal of a protected call. A superuser
// is admin and still has an accountID; the admin key has none.
type caller struct {
	admin     bool
	accountID string
}

type access int

const (
	accessPublic access = iota
	// accessSelf accepts admin credentials or an access token for the
	// account named in the request.
	accessSelf
	// accessOwner accepts only the account's own access token.
	accessOwner
	// accessAdmin accepts the admin key or a superuser's access token.
	accessAdmin
)

var methodAccess = map[string]access{
	pb.MethodLockAccount:        accessAdmin,
	pb.MethodUnlockAccount:      accessAdmin,
	pb.MethodDeleteAccount:      accessAdmin,
	pb.MethodListAccounts:       accessAdmin,
	pb.MethodSetRole:            accessAdmin,
	pb.MethodGetAuditTrail:      accessAdmin,
	pb.MethodIssuePasswordReset: accessAdmin,
	pb.MethodLogoutAll:          accessSelf,
	pb.MethodDeactivateAccount:  accessSelf,
	pb.MethodGetAccount:         accessSelf,
	pb.MethodUpdateProfile:      accessSelf,
	pb.MethodChangePassword:     accessOwner,
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) isAdmin(ctx context.Context) bool {
	key := firstMetadata(ctx, common.AdminKeyHeaderName)
	return key != "" && len(s.adminKey) > 0 && subtle.ConstantTimeCompare([]byte(key), s.adminKey) == 1
}

func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	mode := methodAccess[info.FullMethod]
	if mode == accessPublic {
		return handler(ctx, req)
	}

	if mode != accessOwner && s.isAdmin(ctx) {
		return handler(context.WithValue(ctx, callerKey, caller{admin: true}), req)
	}

	accessToken := firstMetadata(ctx, common.AccessTokenHeaderName)
	if accessToken == "" {
		switch {
		case mode == accessAdmin:
			return nil, statusError(codes.PermissionDenied, ReasonPermissionDenied, "admin key or superuser token required")
		case mode == accessOwner && s.isAdmin(ctx):
			return nil, statusError(codes.PermissionDenied, ReasonPermissionDenied, "the account's own access token is required")
		}
		return nil, statusError(codes.Unauthenticated, ReasonInvalidToken, "missing token")
	}
	sess, err := s.auth.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return nil, toStatus(err)
	}

	c := caller{accountID: sess.AccountID}
	if mode != accessOwner {
		if c.admin, err = s.isSuperuser(ctx, sess.AccountID); err != nil {
			return nil, toStatus(err)
		}
	}
	if mode == accessAdmin && !c.admin {
		return nil, statusError(codes.PermissionDenied, ReasonPermissionDenied, "superuser role required")
	}
	return handler(context.WithValue(ctx, callerKey, c), req)
}

// isSuperuser reports whether the token's account currently holds the
// superuser role. The role is read per call, so a revoked role takes effect
// immediately.
func (s *GRPCServer) isSuperuser(ctx context.Context, accountID string) (bool, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, common.ErrInvalidToken
	}
	if err != nil {
		return false, err
	}
	return acc.Role == models.RoleSuperuser && acc.Status == models.StatusActive, nil
}

// targetAccount resolves which account a self-service call acts on. The
// admin key must name one, a superuser defaults to their own, and other
// token holders may only name their own or leave it empty.
func targetAccount(ctx context.Context, requested string) (string, error) {
	c, ok := ctx.Value(callerKey).(caller)
	switch {
	case !ok:
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	case c.admin && requested != "":
		return requested, nil
	case c.admin && c.accountID == "":
		return "", statusError(codes.InvalidArgument, ReasonInvalidArgument, "account_id is required")
	case requested == "" || requested == c.accountID:
		return c.accountID, nil
	default:
		return "", statusError(codes.PermissionDenied, ReasonPermissionDenied, "not your account")
	}
}

// timeoutInterceptor caps every call at the configured request timeout.
func (s *GRPCServer) timeoutInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.timeout <= 0 {
		return handler(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK:
		s.logger.Debug(ctx, "rpc", args...)
	case codes.Internal, codes.Unknown, codes.Unavailable:
		s.logger.Error(ctx, "rpc", args...)
	default:
		s.logger.Info(ctx, "rpc", args...)
	}
	return resp, err
}

// clientInfo describes the caller for audit and rate-limit keys.
func clientInfo(ctx context.Context) models.ClientInfo {
	var info models.ClientInfo
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr := p.Addr.String()
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
		info.Source = addr
	}
	info.UserAgent = firstMetadata(ctx, "user-agent")
	return info
}
