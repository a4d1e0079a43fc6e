package proto

import (
	"context"

	"google.golang.org/grpc"
)

type UsersServiceClient interface {
	CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	RefreshSession(ctx context.Context, in *SessionTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	ValidateSession(ctx context.Context, in *SessionTokenRequest, opts ...grpc.CallOption) (*ValidateSessionResponse, error)
	Logout(ctx context.Context, in *SessionTokenRequest, opts ...grpc.CallOption) (*Empty, error)
	LogoutAll(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*LogoutAllResponse, error)
	LockAccount(ctx context.Context, in *LockAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	UnlockAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	DeactivateAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	DeleteAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	GetAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*ListAccountsResponse, error)
	ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	SetRole(ctx context.Context, in *SetRoleRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	GetAuditTrail(ctx context.Context, in *AuditTrailRequest, opts ...grpc.CallOption) (*AuditTrailResponse, error)
	IssuePasswordReset(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*IssuePasswordResetResponse, error)
	ApplyPasswordReset(ctx context.Context, in *ApplyPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error)
	Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error)
}

type usersServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUsersServiceClient returns a client whose calls always use the JSON
// codec, so the same connection can still serve proto-encoded services such
// as grpc.health.v1.
func NewUsersServiceClient(cc grpc.ClientConnInterface) UsersServiceClient {
	return &usersServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *usersServiceClient) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodCreateAccount, in, opts)
}

func (c *usersServiceClient) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodAuthenticate, in, opts)
}

func (c *usersServiceClient) RefreshSession(ctx context.Context, in *SessionTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodRefreshSession, in, opts)
}

func (c *usersServiceClient) ValidateSession(ctx context.Context, in *SessionTokenRequest, opts ...grpc.CallOption) (*ValidateSessionResponse, error) {
	return invoke[ValidateSessionResponse](ctx, c.cc, MethodValidateSession, in, opts)
}

func (c *usersServiceClient) Logout(ctx context.Context, in *SessionTokenRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *usersServiceClient) LogoutAll(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*LogoutAllResponse, error) {
	return invoke[LogoutAllResponse](ctx, c.cc, MethodLogoutAll, in, opts)
}

func (c *usersServiceClient) LockAccount(ctx context.Context, in *LockAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodLockAccount, in, opts)
}

func (c *usersServiceClient) UnlockAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodUnlockAccount, in, opts)
}

func (c *usersServiceClient) DeactivateAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodDeactivateAccount, in, opts)
}

func (c *usersServiceClient) DeleteAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodDeleteAccount, in, opts)
}

func (c *usersServiceClient) GetAccount(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodGetAccount, in, opts)
}

func (c *usersServiceClient) ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*ListAccountsResponse, error) {
	return invoke[ListAccountsResponse](ctx, c.cc, MethodListAccounts, in, opts)
}

func (c *usersServiceClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodChangePassword, in, opts)
}

func (c *usersServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodUpdateProfile, in, opts)
}

func (c *usersServiceClient) SetRole(ctx context.Context, in *SetRoleRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodSetRole, in, opts)
}

func (c *usersServiceClient) GetAuditTrail(ctx context.Context, in *AuditTrailRequest, opts ...grpc.CallOption) (*AuditTrailResponse, error) {
	return invoke[AuditTrailResponse](ctx, c.cc, MethodGetAuditTrail, in, opts)
}

func (c *usersServiceClient) IssuePasswordReset(ctx context.Context, in *AccountRequest, opts ...grpc.CallOption) (*IssuePasswordResetResponse, error) {
	return invoke[IssuePasswordResetResponse](ctx, c.cc, MethodIssuePasswordReset, in, opts)
}

func (c *usersServiceClient) ApplyPasswordReset(ctx context.Context, in *ApplyPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodApplyPasswordReset, in, opts)
}

func (c *usersServiceClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
