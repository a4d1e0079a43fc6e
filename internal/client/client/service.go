package client

import (
	"context"

	pb "github.com/dmitrijs2005/users/internal/proto"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	IsLoggedIn() bool
	AccountID() string

	CreateAccount(ctx context.Context, identifier string, password []byte) (*pb.Account, error)
	Login(ctx context.Context, identifier string, password []byte) (*pb.Account, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context, accountID string) (int64, error)
	GetAccount(ctx context.Context, accountID string) (*pb.Account, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error
	DeactivateAccount(ctx context.Context, accountID string) (*pb.Account, error)
	UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.Account, error)
	ApplyPasswordReset(ctx context.Context, resetToken string, newPassword []byte) error

	LockAccount(ctx context.Context, accountID, reason string) (*pb.Account, error)
	UnlockAccount(ctx context.Context, accountID string) (*pb.Account, error)
	DeleteAccount(ctx context.Context, accountID string) (*pb.Account, error)
	ListAccounts(ctx context.Context, offset, limit int) ([]*pb.Account, error)
	SetRole(ctx context.Context, accountID, role string) (*pb.Account, error)
	AuditTrail(ctx context.Context, accountID string, limit int) ([]*pb.AuditEvent, error)
	IssuePasswordReset(ctx context.Context, accountID string) (*pb.IssuePasswordResetResponse, error)
}

var _ Client = (*GRPCClient)(nil)
