package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "users.v1.UsersService"

// Full method names.
const (
	MethodCreateAccount      = "/" + ServiceName + "/CreateAccount"
	MethodAuthenticate       = "/" + ServiceName + "/Authenticate"
	MethodRefreshSession     = "/" + ServiceName + "/RefreshSession"
	MethodValidateSession    = "/" + ServiceName + "/ValidateSession"
	MethodLogout             = "/" + ServiceName + "/Logout"
	MethodLogoutAll          = "/" + ServiceName + "/LogoutAll"
	MethodLockAccount        = "/" + ServiceName + "/LockAccount"
	MethodUnlockAccount      = "/" + ServiceName + "/UnlockAccount"
	MethodDeactivateAccount  = "/" + ServiceName + "/DeactivateAccount"
	MethodDeleteAccount      = "/" + ServiceName + "/DeleteAccount"
	MethodGetAccount         = "/" + ServiceName + "/GetAccount"
	MethodListAccounts       = "/" + ServiceName + "/ListAccounts"
	MethodChangePassword     = "/" + ServiceName + "/ChangePassword"
	MethodUpdateProfile      = "/" + ServiceName + "/UpdateProfile"
	MethodSetRole            = "/" + ServiceName + "/SetRole"
	MethodGetAuditTrail      = "/" + ServiceName + "/GetAuditTrail"
	MethodIssuePasswordReset = "/" + ServiceName + "/IssuePasswordReset"
	MethodApplyPasswordReset = "/" + ServiceName + "/ApplyPasswordReset"
	MethodPing               = "/" + ServiceName + "/Ping"
)

type UsersServiceServer interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*AccountResponse, error)
	Authenticate(context.Context, *AuthenticateRequest) (*AuthResponse, error)
	RefreshSession(context.Context, *SessionTokenRequest) (*AuthResponse, error)
	ValidateSession(context.Context, *SessionTokenRequest) (*ValidateSessionResponse, error)
	Logout(context.Context, *SessionTokenRequest) (*Empty, error)
	LogoutAll(context.Context, *AccountRequest) (*LogoutAllResponse, error)
	LockAccount(context.Context, *LockAccountRequest) (*AccountResponse, error)
	UnlockAccount(context.Context, *AccountRequest) (*AccountResponse, error)
	DeactivateAccount(context.Context, *AccountRequest) (*AccountResponse, error)
	DeleteAccount(context.Context, *AccountRequest) (*AccountResponse, error)
	GetAccount(context.Context, *AccountRequest) (*AccountResponse, error)
	ListAccounts(context.Context, *ListAccountsRequest) (*ListAccountsResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*AuthResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*AccountResponse, error)
	SetRole(context.Context, *SetRoleRequest) (*AccountResponse, error)
	GetAuditTrail(context.Context, *AuditTrailRequest) (*AuditTrailResponse, error)
	IssuePasswordReset(context.Context, *AccountRequest) (*IssuePasswordResetResponse, error)
	ApplyPasswordReset(context.Context, *ApplyPasswordResetRequest) (*Empty, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

// UnimplementedUsersServiceServer can be embedded to stay source compatible
// when methods are added.
type UnimplementedUsersServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedUsersServiceServer) CreateAccount(context.Context, *CreateAccountRequest) (*AccountResponse, error) {
	return nil, unimplemented("CreateAccount")
}
func (UnimplementedUsersServiceServer) Authenticate(context.Context, *AuthenticateRequest) (*AuthResponse, error) {
	return nil, unimplemented("Authenticate")
}
func (UnimplementedUsersServiceServer) RefreshSession(context.Context, *SessionTokenRequest) (*AuthResponse, error) {
	return nil, unimplemented("RefreshSession")
}
func (UnimplementedUsersServiceServer) ValidateSession(context.Context, *SessionTokenRequest) (*ValidateSessionResponse, error) {
	return nil, unimplemented("ValidateSession")
}
func (UnimplementedUsersServiceServer) Logout(context.Context, *SessionTokenRequest) (*Empty, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedUsersServiceServer) LogoutAll(context.Context, *AccountRequest) (*LogoutAllResponse, error) {
	return nil, unimplemented("LogoutAll")
}
func (UnimplementedUsersServiceServer) LockAccount(context.Context, *LockAccountRequest) (*AccountResponse, error) {
	return nil, unimplemented("LockAccount")
}
func (UnimplementedUsersServiceServer) UnlockAccount(context.Context, *AccountRequest) (*AccountResponse, error) {
	return nil, unimplemented("UnlockAccount")
}
func (UnimplementedUsersServiceServer) DeactivateAccount(context.Context, *AccountRequest) (*AccountResponse, error) {
	return nil, unimplemented("DeactivateAccount")
}
func (UnimplementedUsersServiceServer) DeleteAccount(context.Context, *AccountRequest) (*AccountResponse, error) {
	return nil, unimplemented("DeleteAccount")
}
func (UnimplementedUsersServiceServer) GetAccount(context.Context, *AccountRequest) (*AccountResponse, error) {
	return nil, unimplemented("GetAccount")
}
func (UnimplementedUsersServiceServer) ListAccounts(context.Context, *ListAccountsRequest) (*ListAccountsResponse, error) {
	return nil, unimplemented("ListAccounts")
}
func (UnimplementedUsersServiceServer) ChangePassword(context.Context, *ChangePasswordRequest) (*AuthResponse, error) {
	return nil, unimplemented("ChangePassword")
}
func (UnimplementedUsersServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*AccountResponse, error) {
	return nil, unimplemented("UpdateProfile")
}
func (UnimplementedUsersServiceServer) SetRole(context.Context, *SetRoleRequest) (*AccountResponse, error) {
	return nil, unimplemented("SetRole")
}
func (UnimplementedUsersServiceServer) GetAuditTrail(context.Context, *AuditTrailRequest) (*AuditTrailResponse, error) {
	return nil, unimplemented("GetAuditTrail")
}
func (UnimplementedUsersServiceServer) IssuePasswordReset(context.Context, *AccountRequest) (*IssuePasswordResetResponse, error) {
	return nil, unimplemented("IssuePasswordReset")
}
func (UnimplementedUsersServiceServer) ApplyPasswordReset(context.Context, *ApplyPasswordResetRequest) (*Empty, error) {
	return nil, unimplemented("ApplyPasswordReset")
}
func (UnimplementedUsersServiceServer) Ping(context.Context, *Empty) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}

// unary adapts a UsersServiceServer method into a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(UsersServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(UsersServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(UsersServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var UsersService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UsersServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateAccount", UsersServiceServer.CreateAccount),
		unary("Authenticate", UsersServiceServer.Authenticate),
		unary("RefreshSession", UsersServiceServer.RefreshSession),
		unary("ValidateSession", UsersServiceServer.ValidateSession),
		unary("Logout", UsersServiceServer.Logout),
		unary("LogoutAll", UsersServiceServer.LogoutAll),
		unary("LockAccount", UsersServiceServer.LockAccount),
		unary("UnlockAccount", UsersServiceServer.UnlockAccount),
		unary("DeactivateAccount", UsersServiceServer.DeactivateAccount),
		unary("DeleteAccount", UsersServiceServer.DeleteAccount),
		unary("GetAccount", UsersServiceServer.GetAccount),
		unary("ListAccounts", UsersServiceServer.ListAccounts),
		unary("ChangePassword", UsersServiceServer.ChangePassword),
		unary("UpdateProfile", UsersServiceServer.UpdateProfile),
		unary("SetRole", UsersServiceServer.SetRole),
		unary("GetAuditTrail", UsersServiceServer.GetAuditTrail),
		unary("IssuePasswordReset", UsersServiceServer.IssuePasswordReset),
		unary("ApplyPasswordReset", UsersServiceServer.ApplyPasswordReset),
		unary("Ping", UsersServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "users/v1/users.proto",
}

func RegisterUsersServiceServer(s grpc.ServiceRegistrar, srv UsersServiceServer) {
	s.RegisterService(&UsersService_ServiceDesc, srv)
}
